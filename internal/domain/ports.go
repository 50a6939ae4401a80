package domain

import "context"

// ReviewSource is the common fetch capability every channel adapter
// exposes; the aggregation service treats sources uniformly through it.
// Implementations never propagate fetch failures: they resolve them to
// fallback data or an empty slice before returning.
type ReviewSource interface {
	Fetch(ctx context.Context) ([]Review, error)
}

// PlaceReviewSource is a per-property channel (Channel-B style): reviews
// are looked up by listing display name, one query per property.
type PlaceReviewSource interface {
	GetPropertyReviews(ctx context.Context, propertyName string) ([]Review, error)

	// Available reports whether the integration is configured (credential
	// present). When false the source is skipped entirely, no calls made.
	Available() bool

	// IntegrationInfo returns the static descriptor shown on the dashboard.
	IntegrationInfo() IntegrationInfo
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// IntegrationInfo is a static descriptor of a channel integration's
// limitations, surfaced to the dashboard as-is. Informational only.
type IntegrationInfo struct {
	Available      bool     `json:"available"`
	Limitations    []string `json:"limitations"`
	Alternatives   []string `json:"alternatives"`
	Recommendation string   `json:"recommendation"`
}
