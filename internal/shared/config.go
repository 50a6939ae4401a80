package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	HostawayBase  string
	HostawayKey   string
	HostawayAcct  string
	PlacesBase    string
	PlacesKey     string
	FanoutWorkers int
	CacheTTL      time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		RedisPass:     env("REDIS_PASSWORD", ""),
		HostawayBase:  env("HOSTAWAY_BASE_URL", "https://api.hostaway.com/v1"),
		HostawayKey:   env("HOSTAWAY_API_KEY", ""),
		HostawayAcct:  env("HOSTAWAY_ACCOUNT_ID", "61148"),
		PlacesBase:    env("GOOGLE_PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesKey:     env("GOOGLE_PLACES_API_KEY", ""),
		FanoutWorkers: atoi("FANOUT_WORKERS", 4),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 0)) * time.Second,
	}
	if c.HostawayKey == "" {
		log.Warn().Msg("HOSTAWAY_API_KEY is empty; adapter will serve the built-in sample set")
	}
	if c.PlacesKey == "" {
		log.Info().Msg("GOOGLE_PLACES_API_KEY is empty; google channel disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
