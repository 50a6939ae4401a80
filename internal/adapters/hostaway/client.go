package hostaway

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/domain"
)

// Client fetches guest reviews from the Hostaway API and normalizes them
// into the unified review shape. Fetch never fails: any error, malformed
// payload, or empty result resolves to the built-in sample set so the
// dashboard always has at least one review to show.
type Client struct {
	base string
	hc   *http.Client
	key  string
	acct string
	rl   *rate.Limiter
}

func New(base, key, accountID string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		acct: accountID,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// ---- wire types ----

type apiCategory struct {
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
}

type apiReview struct {
	ID             int64         `json:"id"`
	Type           string        `json:"type"`
	Status         string        `json:"status"`
	Rating         *float64      `json:"rating"`
	PublicReview   string        `json:"publicReview"`
	ReviewCategory []apiCategory `json:"reviewCategory"`
	SubmittedAt    string        `json:"submittedAt"`
	GuestName      string        `json:"guestName"`
	ListingName    string        `json:"listingName"`
}

type apiResponse struct {
	Status string      `json:"status"`
	Result []apiReview `json:"result"`
}

const submittedAtLayout = "2006-01-02 15:04:05"

// Fetch implements domain.ReviewSource.
func (c *Client) Fetch(ctx context.Context) ([]domain.Review, error) {
	raw, err := c.fetchRaw(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("hostaway fetch failed; using sample reviews")
		raw = sampleReviews
	} else if len(raw) == 0 {
		log.Info().Msg("hostaway returned no reviews; using sample reviews")
		raw = sampleReviews
	}
	return normalize(raw), nil
}

func (c *Client) fetchRaw(ctx context.Context) ([]apiReview, error) {
	var resp apiResponse
	start := time.Now()
	err := c.get(ctx, c.base+"/reviews", &resp)
	observability.ObserveExternal("hostaway", "/reviews", statusLabel(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("hostaway: response status %q", resp.Status)
	}
	return resp.Result, nil
}

func normalize(in []apiReview) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for _, r := range in {
		cats := make([]domain.CategoryRating, 0, len(r.ReviewCategory))
		for _, c := range r.ReviewCategory {
			cats = append(cats, domain.CategoryRating{Category: c.Category, Rating: c.Rating})
		}
		overall := domain.OverallFromCategories(cats)
		if r.Rating != nil {
			overall = *r.Rating
		}
		at, err := time.ParseInLocation(submittedAtLayout, r.SubmittedAt, time.UTC)
		if err != nil {
			log.Warn().Int64("id", r.ID).Str("submittedAt", r.SubmittedAt).Msg("unparseable submittedAt")
		}
		out = append(out, domain.Review{
			ID:            fmt.Sprintf("hostaway-%d", r.ID),
			Direction:     domain.Direction(r.Type),
			Status:        domain.Status(r.Status),
			OverallRating: overall,
			Text:          r.PublicReview,
			Categories:    cats,
			SubmittedAt:   at,
			GuestName:     r.GuestName,
			ListingName:   r.ListingName,
			Channel:       domain.ChannelHostaway,
			PropertyID:    domain.PropertyID(r.ListingName),
		})
	}
	return out
}

// ---- HTTP internals ----

var (
	ErrNotFound     = errors.New("hostaway: not found")
	ErrUnauthorized = errors.New("hostaway: unauthorized")
)

func statusLabel(err error) int {
	if err != nil {
		return 0
	}
	return http.StatusOK
}

// get performs a GET with client-side rate limiting, retries, and JSON
// decode into out. Retries on 429 and transient 5xx, honoring Retry-After
// when provided.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("Authorization", "Bearer "+c.key)
		}
		if c.acct != "" {
			req.Header.Set("X-Hostaway-Account-Id", c.acct)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "flex-reviews/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
