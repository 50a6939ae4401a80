package googleplaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/domain"
)

// Client fetches place reviews from the Google Places API. Every step
// fails soft: a property that cannot be resolved or fetched contributes
// zero reviews, never an error. The provider has no draft concept and no
// category breakdown, so normalized reviews are always published with
// empty categories.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

// New builds a client. The limiter defaults to 1 rps, matching the
// provider's documented 100-requests-per-100-seconds quota.
func New(base, key string) *Client {
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 15 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(1), 5),
	}
}

// ---- wire types ----

type placeReview struct {
	AuthorName string  `json:"author_name"`
	Language   string  `json:"language"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
	Time       int64   `json:"time"` // epoch seconds
}

type textSearchResponse struct {
	Results []struct {
		PlaceID string `json:"place_id"`
	} `json:"results"`
	Status string `json:"status"`
}

type detailsResponse struct {
	Result struct {
		PlaceID string        `json:"place_id"`
		Name    string        `json:"name"`
		Reviews []placeReview `json:"reviews"`
	} `json:"result"`
	Status string `json:"status"`
}

// Available implements domain.PlaceReviewSource; true only when an API
// key is configured.
func (c *Client) Available() bool { return c.key != "" }

// GetPropertyReviews resolves the property name to a place id and fetches
// that place's reviews, normalized. Returns an empty slice on any failure.
func (c *Client) GetPropertyReviews(ctx context.Context, propertyName string) ([]domain.Review, error) {
	placeID, err := c.searchPlace(ctx, propertyName)
	if err != nil || placeID == "" {
		log.Warn().Err(err).Str("property", propertyName).Msg("google place resolution failed")
		return nil, nil
	}
	raw, err := c.fetchPlaceReviews(ctx, placeID)
	if err != nil {
		log.Warn().Err(err).Str("place_id", placeID).Msg("google reviews fetch failed")
		return nil, nil
	}
	return normalize(raw, propertyName), nil
}

// IntegrationInfo describes what this integration can and cannot deliver.
func (c *Client) IntegrationInfo() domain.IntegrationInfo {
	return domain.IntegrationInfo{
		Available: c.Available(),
		Limitations: []string{
			"Only 5 most recent reviews available",
			"Review text limited to ~200 characters",
			"No category ratings provided",
			"Requires Google Places API key",
			"Rate limited to 100 requests per 100 seconds",
			"Full reviews only available via Google My Business API (business owner access)",
		},
		Alternatives: []string{
			"Google My Business API (business owner only)",
			"Third-party review management platforms",
			"Direct Google Business Profile integration",
			"Review tracking services (ReviewTrackers, Podium, etc.)",
		},
		Recommendation: "For comprehensive review management, consider using Google My Business API " +
			"(requires business verification) or a third-party review management platform.",
	}
}

func normalize(in []placeReview, propertyName string) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for i, r := range in {
		out = append(out, domain.Review{
			ID:            fmt.Sprintf("google-%d-%d", r.Time, i),
			Direction:     domain.GuestToHost,
			Status:        domain.StatusPublished,
			OverallRating: r.Rating,
			Text:          r.Text,
			Categories:    []domain.CategoryRating{},
			SubmittedAt:   time.Unix(r.Time, 0).UTC(),
			GuestName:     r.AuthorName,
			ListingName:   propertyName,
			Channel:       domain.ChannelGoogle,
			PropertyID:    domain.PropertyID(propertyName),
		})
	}
	return out
}

// ---- HTTP internals ----

var errPlaceNotFound = errors.New("googleplaces: place not found")

func (c *Client) searchPlace(ctx context.Context, query string) (string, error) {
	u := fmt.Sprintf("%s/textsearch/json?query=%s&key=%s", c.base, url.QueryEscape(query), url.QueryEscape(c.key))
	var resp textSearchResponse
	start := time.Now()
	err := c.get(ctx, u, &resp)
	observability.ObserveExternal("googleplaces", "/textsearch", statusLabel(err), time.Since(start))
	if err != nil {
		return "", err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return "", errPlaceNotFound
	}
	return resp.Results[0].PlaceID, nil
}

func (c *Client) fetchPlaceReviews(ctx context.Context, placeID string) ([]placeReview, error) {
	u := fmt.Sprintf("%s/details/json?place_id=%s&fields=reviews,rating,user_ratings_total&key=%s",
		c.base, url.QueryEscape(placeID), url.QueryEscape(c.key))
	var resp detailsResponse
	start := time.Now()
	err := c.get(ctx, u, &resp)
	observability.ObserveExternal("googleplaces", "/details", statusLabel(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("googleplaces: response status %q", resp.Status)
	}
	return resp.Result.Reviews, nil
}

func statusLabel(err error) int {
	if err != nil {
		return 0
	}
	return http.StatusOK
}

// get performs a single rate-limited GET with JSON decode. Unlike the
// Hostaway client there is no retry loop: a miss here only costs one
// property's reviews, and the quota is tight.
func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "flex-reviews/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
