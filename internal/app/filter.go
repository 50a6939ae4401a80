package app

import (
	"slices"

	"flex_reviews/internal/domain"
)

// FilterReviews returns the subset of reviews matching every present
// dimension of f. Pure function, no side effects; dimensions combine with
// AND, values within a dimension with OR.
func FilterReviews(reviews []domain.Review, f domain.Filters) []domain.Review {
	out := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if matches(r, f) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r domain.Review, f domain.Filters) bool {
	if len(f.Rating) > 0 && !slices.Contains(f.Rating, domain.RatingBucket(r.OverallRating)) {
		return false
	}
	if len(f.Category) > 0 && !hasAnyCategory(r, f.Category) {
		return false
	}
	if len(f.Channel) > 0 && !slices.Contains(f.Channel, string(r.Channel)) {
		return false
	}
	if len(f.Status) > 0 && !slices.Contains(f.Status, string(r.Status)) {
		return false
	}
	if len(f.Property) > 0 && !slices.Contains(f.Property, r.PropertyID) {
		return false
	}
	if dr := f.DateRange; dr != nil {
		// inclusive on both ends
		if r.SubmittedAt.Before(dr.Start) || r.SubmittedAt.After(dr.End) {
			return false
		}
	}
	return true
}

func hasAnyCategory(r domain.Review, wanted []string) bool {
	for _, c := range r.Categories {
		if slices.Contains(wanted, c.Category) {
			return true
		}
	}
	return false
}
