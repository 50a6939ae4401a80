package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the zerolog Logger used process-wide.
// APP_ENV=dev (or development) switches to the human-friendly console writer.
func NewLogger(env string) zerolog.Logger {
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "dev" || env == "development" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return l
}
