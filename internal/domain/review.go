package domain

import (
	"math"
	"strings"
	"time"
)

// Channel identifies the external source a review came from.
type Channel string

const (
	ChannelHostaway Channel = "hostaway"
	ChannelGoogle   Channel = "google"
	// ChannelAirbnb is declared for reviews that may carry it; no adapter exists yet.
	ChannelAirbnb Channel = "airbnb"
)

// Direction says who is being reviewed.
type Direction string

const (
	HostToGuest Direction = "host-to-guest"
	GuestToHost Direction = "guest-to-host"
)

// Status is the channel's own lifecycle flag. Selection for public display
// is tracked separately (Review.IsSelected).
type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
)

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type CategoryRating struct {
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
}

// Review is the unified shape every channel normalizes into.
// OverallRating is on a 0-10 scale regardless of source.
type Review struct {
	ID            string           `json:"id"`
	Direction     Direction        `json:"type"`
	Status        Status           `json:"status"`
	OverallRating float64          `json:"overallRating"`
	Text          string           `json:"reviewText"`
	Categories    []CategoryRating `json:"categories"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	GuestName     string           `json:"guestName"`
	ListingName   string           `json:"listingName"`
	Channel       Channel          `json:"channel"`
	IsSelected    bool             `json:"isSelected"`
	PropertyID    string           `json:"propertyId"`
}

// PropertyPerformance is recomputed wholesale from the current review set
// on every read; it is never mutated in place.
type PropertyPerformance struct {
	PropertyID      string             `json:"propertyId"`
	PropertyName    string             `json:"propertyName"`
	TotalReviews    int                `json:"totalReviews"`
	AverageRating   float64            `json:"averageRating"`
	SelectedReviews int                `json:"selectedReviews"`
	CategoryRatings map[string]float64 `json:"categoryRatings"`
	RecentTrend     Trend              `json:"recentTrend"`
	LastReviewDate  time.Time          `json:"lastReviewDate"`
}

// PropertyID derives the stable join key from a listing's display name:
// lower-case, every character outside [a-z0-9] becomes '-', truncated to
// 20 characters. Same name always yields the same id.
func PropertyID(listingName string) string {
	var b strings.Builder
	b.Grow(len(listingName))
	for _, r := range strings.ToLower(listingName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	id := b.String()
	if len(id) > 20 {
		id = id[:20]
	}
	return id
}

// OverallFromCategories is the fallback rating rule: the mean of the
// category ratings rounded to one decimal, or 0 when there are none.
func OverallFromCategories(cats []CategoryRating) float64 {
	if len(cats) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cats {
		sum += c.Rating
	}
	return Round1(sum / float64(len(cats)))
}

// RatingBucket maps a 0-10 rating onto the 1-5 filter buckets via
// ceil(rating/2). Rating 0 maps to bucket 0, which no user-facing
// bucket ever matches.
func RatingBucket(overall float64) int {
	return int(math.Ceil(overall / 2))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
