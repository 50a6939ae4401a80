package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/domain"
)

const hostawayCacheKey = "reviews:hostaway"

// ReviewService merges the channel adapters into one review collection,
// overlays the selection state, and derives per-property performance.
// All reads recompute from the current sources; nothing is mutated in
// place.
type ReviewService struct {
	hostaway domain.ReviewSource
	google   domain.PlaceReviewSource
	cache    domain.Cache
	cacheTTL time.Duration
	workers  int

	selection *SelectionStore

	mu      sync.Mutex
	filters domain.Filters
}

func NewReviewService(h domain.ReviewSource, g domain.PlaceReviewSource, c domain.Cache, ttl time.Duration, workers int) *ReviewService {
	if workers <= 0 {
		workers = 4
	}
	return &ReviewService{
		hostaway:  h,
		google:    g,
		cache:     c,
		cacheTTL:  ttl,
		workers:   workers,
		selection: NewSelectionStore(),
	}
}

// GetHostawayReviews returns the normalized Channel-A collection, cached
// after the first successful fetch until ClearCache is called (or the
// cache TTL, if configured, expires).
func (s *ReviewService) GetHostawayReviews(ctx context.Context) ([]domain.Review, error) {
	var cached []domain.Review
	if ok, _ := s.cache.Get(ctx, hostawayCacheKey, &cached); ok {
		return cached, nil
	}
	reviews, err := s.hostaway.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, hostawayCacheKey, reviews, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Msg("caching hostaway reviews failed")
	}
	return reviews, nil
}

// GetGoogleReviews queries the Google channel once per distinct listing
// name seen in the Hostaway output. Queries run concurrently (bounded by
// workers) but results concatenate in the names' first-appearance order,
// so the merged collection stays deterministic. Never cached.
func (s *ReviewService) GetGoogleReviews(ctx context.Context) ([]domain.Review, error) {
	hostawayReviews, err := s.GetHostawayReviews(ctx)
	if err != nil {
		return nil, err
	}
	names := distinctListingNames(hostawayReviews)

	results := make([][]domain.Review, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			// the adapter fails soft; an error here is only ctx cancellation
			rs, err := s.google.GetPropertyReviews(gctx, name)
			if err != nil {
				return err
			}
			results[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Review
	for _, rs := range results {
		out = append(out, rs...)
	}
	return out, nil
}

// GetAllReviews returns Hostaway followed by Google reviews (concatenation
// order, no re-sorting), each annotated with its current selection state.
// The Google channel is skipped entirely when unavailable.
func (s *ReviewService) GetAllReviews(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.GetHostawayReviews(ctx)
	if err != nil {
		return nil, err
	}
	if s.google.Available() {
		googleReviews, err := s.GetGoogleReviews(ctx)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, googleReviews...)
	}

	out := make([]domain.Review, len(reviews))
	for i, r := range reviews {
		r.IsSelected = s.selection.Selected(r.ID)
		out[i] = r
	}
	return out, nil
}

// GetSelectedReviews returns only the reviews marked for public display.
func (s *ReviewService) GetSelectedReviews(ctx context.Context) ([]domain.Review, error) {
	all, err := s.GetAllReviews(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(all))
	for _, r := range all {
		if r.IsSelected {
			out = append(out, r)
		}
	}
	return out, nil
}

// ToggleReviewSelection flips whether id is publicly displayed and returns
// the new state. Ids are not validated: an id matching no review toggles
// freely and affects nothing.
func (s *ReviewService) ToggleReviewSelection(id string) bool {
	selected := s.selection.Toggle(id)
	observability.ObserveToggle(selected)
	log.Debug().Str("id", id).Bool("selected", selected).Msg("review selection toggled")
	return selected
}

// ApplyFilters merges the present fields of partial into the active
// filter specification.
func (s *ReviewService) ApplyFilters(partial domain.Filters) {
	s.mu.Lock()
	s.filters = s.filters.Merge(partial)
	s.mu.Unlock()
}

// ResetFilters clears the active filter specification.
func (s *ReviewService) ResetFilters() {
	s.mu.Lock()
	s.filters = domain.Filters{}
	s.mu.Unlock()
}

// GetFilteredReviews applies the active filters to the full collection.
func (s *ReviewService) GetFilteredReviews(ctx context.Context) ([]domain.Review, error) {
	all, err := s.GetAllReviews(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	f := s.filters
	s.mu.Unlock()
	return FilterReviews(all, f), nil
}

// ClearCache drops the cached Channel-A collection so the next read
// fetches fresh.
func (s *ReviewService) ClearCache(ctx context.Context) error {
	return s.cache.Del(ctx, hostawayCacheKey)
}

// GoogleIntegrationInfo surfaces the Channel-B integration descriptor.
func (s *ReviewService) GoogleIntegrationInfo() domain.IntegrationInfo {
	return s.google.IntegrationInfo()
}

// GetPropertyPerformance recomputes per-property statistics from the
// current review set: counts, one-decimal average, per-category means,
// last review date, and a coarse recent-vs-oldest trend heuristic (not a
// statistical test; with few reviews the windows can overlap or be empty).
func (s *ReviewService) GetPropertyPerformance(ctx context.Context) ([]domain.PropertyPerformance, error) {
	reviews, err := s.GetAllReviews(ctx)
	if err != nil {
		return nil, err
	}

	// group by property id, preserving first-appearance order
	var order []string
	groups := make(map[string][]domain.Review)
	for _, r := range reviews {
		if _, ok := groups[r.PropertyID]; !ok {
			order = append(order, r.PropertyID)
		}
		groups[r.PropertyID] = append(groups[r.PropertyID], r)
	}

	performance := make([]domain.PropertyPerformance, 0, len(order))
	for _, propertyID := range order {
		group := groups[propertyID]
		total := len(group)

		selected := 0
		var ratingSum float64
		catSums := make(map[string]float64)
		catCounts := make(map[string]int)
		last := time.Time{}
		for _, r := range group {
			if r.IsSelected {
				selected++
			}
			ratingSum += r.OverallRating
			for _, c := range r.Categories {
				catSums[c.Category] += c.Rating
				catCounts[c.Category]++
			}
			if r.SubmittedAt.After(last) {
				last = r.SubmittedAt
			}
		}
		categoryRatings := make(map[string]float64, len(catSums))
		for cat, sum := range catSums {
			categoryRatings[cat] = sum / float64(catCounts[cat])
		}

		performance = append(performance, domain.PropertyPerformance{
			PropertyID: propertyID,
			// display name comes from the first review in group order; if the
			// adapters ever concatenate differently this can change. Known
			// fragility, kept for compatibility.
			PropertyName:    group[0].ListingName,
			TotalReviews:    total,
			AverageRating:   domain.Round1(ratingSum / float64(total)),
			SelectedReviews: selected,
			CategoryRatings: categoryRatings,
			RecentTrend:     recentTrend(group),
			LastReviewDate:  last,
		})
	}

	sort.SliceStable(performance, func(i, j int) bool {
		return performance[i].TotalReviews > performance[j].TotalReviews
	})
	return performance, nil
}

// recentTrend compares the newest min(3, n/2) reviews against the oldest
// min(3, n/2). Empty windows average to 0 (count clamped to 1), which can
// skew tiny groups; that behavior is intentional.
func recentTrend(group []domain.Review) domain.Trend {
	n := len(group) / 2
	if n > 3 {
		n = 3
	}

	byNewest := make([]domain.Review, len(group))
	copy(byNewest, group)
	sort.SliceStable(byNewest, func(i, j int) bool {
		return byNewest[i].SubmittedAt.After(byNewest[j].SubmittedAt)
	})
	byOldest := make([]domain.Review, len(group))
	copy(byOldest, group)
	sort.SliceStable(byOldest, func(i, j int) bool {
		return byOldest[i].SubmittedAt.Before(byOldest[j].SubmittedAt)
	})

	recentAvg := windowAvg(byNewest[:n])
	olderAvg := windowAvg(byOldest[:n])

	switch {
	case recentAvg > olderAvg+0.5:
		return domain.TrendUp
	case recentAvg < olderAvg-0.5:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

func windowAvg(window []domain.Review) float64 {
	var sum float64
	for _, r := range window {
		sum += r.OverallRating
	}
	count := len(window)
	if count < 1 {
		count = 1
	}
	return sum / float64(count)
}

func distinctListingNames(reviews []domain.Review) []string {
	seen := make(map[string]struct{}, len(reviews))
	var names []string
	for _, r := range reviews {
		if _, ok := seen[r.ListingName]; ok {
			continue
		}
		seen[r.ListingName] = struct{}{}
		names = append(names, r.ListingName)
	}
	return names
}
