package app_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

// ---- fakes ----

type fakeSource struct {
	reviews []domain.Review
	calls   int
}

func (f *fakeSource) Fetch(ctx context.Context) ([]domain.Review, error) {
	f.calls++
	return f.reviews, nil
}

type fakeGoogle struct {
	byName    map[string][]domain.Review
	available bool
	calls     int32
}

func (f *fakeGoogle) GetPropertyReviews(ctx context.Context, name string) ([]domain.Review, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.byName[name], nil
}
func (f *fakeGoogle) Available() bool { return f.available }
func (f *fakeGoogle) IntegrationInfo() domain.IntegrationInfo {
	return domain.IntegrationInfo{Available: f.available}
}

type fakeCache struct {
	store map[string][]domain.Review
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*[]domain.Review) = v
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]domain.Review{}
	}
	c.store[key] = v.([]domain.Review)
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- helpers ----

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

func rev(id, listing string, rating float64, at time.Time) domain.Review {
	return domain.Review{
		ID:            id,
		Direction:     domain.GuestToHost,
		Status:        domain.StatusPublished,
		OverallRating: rating,
		Categories:    []domain.CategoryRating{},
		SubmittedAt:   at,
		ListingName:   listing,
		Channel:       domain.ChannelHostaway,
		PropertyID:    domain.PropertyID(listing),
	}
}

func newService(hostaway *fakeSource, google *fakeGoogle) *app.ReviewService {
	return app.NewReviewService(hostaway, google, &fakeCache{}, 0, 4)
}

// ---- tests ----

func TestGetAllReviews_MergesChannelsInOrder(t *testing.T) {
	ha := &fakeSource{reviews: []domain.Review{
		rev("hostaway-1", "Sunny Loft", 9, day(1)),
		rev("hostaway-2", "Shore House", 7, day(2)),
	}}
	gg := &fakeGoogle{available: true, byName: map[string][]domain.Review{
		"Sunny Loft":  {rev("google-100-0", "Sunny Loft", 8, day(3))},
		"Shore House": {rev("google-200-0", "Shore House", 6, day(4))},
	}}
	s := newService(ha, gg)

	all, err := s.GetAllReviews(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	wantIDs := []string{"hostaway-1", "hostaway-2", "google-100-0", "google-200-0"}
	if len(all) != len(wantIDs) {
		t.Fatalf("got %d reviews, want %d", len(all), len(wantIDs))
	}
	for i, want := range wantIDs {
		if all[i].ID != want {
			t.Errorf("position %d: %q, want %q", i, all[i].ID, want)
		}
	}
	// one google query per distinct listing name
	if n := atomic.LoadInt32(&gg.calls); n != 2 {
		t.Errorf("google queries = %d, want 2", n)
	}
}

func TestGetAllReviews_SkipsGoogleWhenUnavailable(t *testing.T) {
	ha := &fakeSource{reviews: []domain.Review{rev("hostaway-1", "Sunny Loft", 9, day(1))}}
	gg := &fakeGoogle{available: false, byName: map[string][]domain.Review{
		"Sunny Loft": {rev("google-100-0", "Sunny Loft", 8, day(2))},
	}}
	s := newService(ha, gg)

	all, err := s.GetAllReviews(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected hostaway reviews only, got %d", len(all))
	}
	if atomic.LoadInt32(&gg.calls) != 0 {
		t.Error("unavailable channel must not be queried at all")
	}
}

func TestHostawayCache_UntilCleared(t *testing.T) {
	ha := &fakeSource{reviews: []domain.Review{rev("hostaway-1", "Sunny Loft", 9, day(1))}}
	s := newService(ha, &fakeGoogle{})
	ctx := context.Background()

	if _, err := s.GetAllReviews(ctx); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := s.GetAllReviews(ctx); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ha.calls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", ha.calls)
	}

	if err := s.ClearCache(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.GetAllReviews(ctx); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ha.calls != 2 {
		t.Fatalf("expected refetch after cache clear, got %d calls", ha.calls)
	}
}

func TestSelectionOverlay_IdempotentWithoutToggle(t *testing.T) {
	ha := &fakeSource{reviews: []domain.Review{
		rev("hostaway-1", "Sunny Loft", 9, day(1)),
		rev("hostaway-2", "Sunny Loft", 7, day(2)),
	}}
	s := newService(ha, &fakeGoogle{})
	ctx := context.Background()

	first, _ := s.GetAllReviews(ctx)
	second, _ := s.GetAllReviews(ctx)
	for i := range first {
		if first[i].IsSelected != second[i].IsSelected {
			t.Fatalf("isSelected drifted without a toggle at %d", i)
		}
	}
}

func TestToggleRoundTrip(t *testing.T) {
	ha := &fakeSource{reviews: []domain.Review{rev("hostaway-1", "Sunny Loft", 9, day(1))}}
	s := newService(ha, &fakeGoogle{})
	ctx := context.Background()

	if got := s.ToggleReviewSelection("hostaway-1"); !got {
		t.Fatal("first toggle must select")
	}
	all, _ := s.GetAllReviews(ctx)
	if !all[0].IsSelected {
		t.Fatal("review must be selected after toggle")
	}

	selected, _ := s.GetSelectedReviews(ctx)
	if len(selected) != 1 || selected[0].ID != "hostaway-1" {
		t.Fatalf("selected = %+v", selected)
	}

	if got := s.ToggleReviewSelection("hostaway-1"); got {
		t.Fatal("second toggle must deselect")
	}
	all, _ = s.GetAllReviews(ctx)
	if all[0].IsSelected {
		t.Fatal("review must be deselected after second toggle")
	}
}

func TestToggleUnknownID(t *testing.T) {
	ha := &fakeSource{reviews: []domain.Review{rev("hostaway-1", "Sunny Loft", 9, day(1))}}
	s := newService(ha, &fakeGoogle{})

	s.ToggleReviewSelection("no-such-review")
	all, err := s.GetAllReviews(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	for _, r := range all {
		if r.IsSelected {
			t.Fatalf("unknown-id toggle must not select anything, got %q", r.ID)
		}
	}
}

func TestPropertyPerformance_Averages(t *testing.T) {
	// three reviews for one property rated 8, 10, 6
	ha := &fakeSource{reviews: []domain.Review{
		rev("hostaway-1", "Property X", 8, day(1)),
		rev("hostaway-2", "Property X", 10, day(2)),
		rev("hostaway-3", "Property X", 6, day(3)),
	}}
	s := newService(ha, &fakeGoogle{})

	perf, err := s.GetPropertyPerformance(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(perf) != 1 {
		t.Fatalf("expected 1 property, got %d", len(perf))
	}
	p := perf[0]
	if p.TotalReviews != 3 {
		t.Errorf("totalReviews = %d, want 3", p.TotalReviews)
	}
	if p.AverageRating != 8.0 {
		t.Errorf("averageRating = %v, want 8.0", p.AverageRating)
	}
	if p.PropertyName != "Property X" {
		t.Errorf("propertyName = %q", p.PropertyName)
	}
	if !p.LastReviewDate.Equal(day(3)) {
		t.Errorf("lastReviewDate = %v, want %v", p.LastReviewDate, day(3))
	}
}

func TestPropertyPerformance_TrendUp(t *testing.T) {
	// oldest to newest: 5, 5, 5, 9, 9 -> recent window avg 9.0, oldest 5.0
	ha := &fakeSource{reviews: []domain.Review{
		rev("hostaway-1", "Property X", 5, day(1)),
		rev("hostaway-2", "Property X", 5, day(2)),
		rev("hostaway-3", "Property X", 5, day(3)),
		rev("hostaway-4", "Property X", 9, day(4)),
		rev("hostaway-5", "Property X", 9, day(5)),
	}}
	s := newService(ha, &fakeGoogle{})

	perf, _ := s.GetPropertyPerformance(context.Background())
	if perf[0].RecentTrend != domain.TrendUp {
		t.Fatalf("trend = %q, want up", perf[0].RecentTrend)
	}
}

func TestPropertyPerformance_SingleReviewIsStable(t *testing.T) {
	// one review: both trend windows are empty, averages collapse to 0
	ha := &fakeSource{reviews: []domain.Review{rev("hostaway-1", "Property X", 9, day(1))}}
	s := newService(ha, &fakeGoogle{})

	perf, _ := s.GetPropertyPerformance(context.Background())
	if perf[0].RecentTrend != domain.TrendStable {
		t.Fatalf("trend = %q, want stable", perf[0].RecentTrend)
	}
}

func TestPropertyPerformance_TotalsAndOrdering(t *testing.T) {
	ha := &fakeSource{reviews: []domain.Review{
		rev("hostaway-1", "Small Place", 7, day(1)),
		rev("hostaway-2", "Big Place", 8, day(2)),
		rev("hostaway-3", "Big Place", 9, day(3)),
		rev("hostaway-4", "Big Place", 10, day(4)),
	}}
	s := newService(ha, &fakeGoogle{})
	ctx := context.Background()

	s.ToggleReviewSelection("hostaway-2")

	perf, err := s.GetPropertyPerformance(ctx)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	all, _ := s.GetAllReviews(ctx)

	sum := 0
	for _, p := range perf {
		sum += p.TotalReviews
	}
	if sum != len(all) {
		t.Errorf("sum of totals %d != review count %d", sum, len(all))
	}

	// descending by totalReviews
	if perf[0].PropertyName != "Big Place" || perf[1].PropertyName != "Small Place" {
		t.Errorf("unexpected order: %q, %q", perf[0].PropertyName, perf[1].PropertyName)
	}
	if perf[0].SelectedReviews != 1 || perf[1].SelectedReviews != 0 {
		t.Errorf("selected counts: %d, %d", perf[0].SelectedReviews, perf[1].SelectedReviews)
	}
}

func TestPropertyPerformance_CategoryMeans(t *testing.T) {
	r1 := rev("hostaway-1", "Property X", 9, day(1))
	r1.Categories = []domain.CategoryRating{
		{Category: "cleanliness", Rating: 10},
		{Category: "communication", Rating: 8},
	}
	r2 := rev("hostaway-2", "Property X", 8, day(2))
	r2.Categories = []domain.CategoryRating{
		{Category: "cleanliness", Rating: 6},
	}
	ha := &fakeSource{reviews: []domain.Review{r1, r2}}
	s := newService(ha, &fakeGoogle{})

	perf, _ := s.GetPropertyPerformance(context.Background())
	got := perf[0].CategoryRatings
	if got["cleanliness"] != 8 {
		t.Errorf("cleanliness mean = %v, want 8", got["cleanliness"])
	}
	// only reviews carrying a category contribute to its mean
	if got["communication"] != 8 {
		t.Errorf("communication mean = %v, want 8", got["communication"])
	}
}

func TestFilteredReviews_ActiveFilters(t *testing.T) {
	ha := &fakeSource{reviews: []domain.Review{
		rev("hostaway-1", "Sunny Loft", 10, day(1)),
		rev("hostaway-2", "Sunny Loft", 6, day(2)),
	}}
	s := newService(ha, &fakeGoogle{})
	ctx := context.Background()

	s.ApplyFilters(domain.Filters{Rating: []int{5}})
	got, err := s.GetFilteredReviews(ctx)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 1 || got[0].ID != "hostaway-1" {
		t.Fatalf("filtered = %+v", got)
	}

	// merge keeps the untouched dimension
	s.ApplyFilters(domain.Filters{Channel: []string{"google"}})
	got, _ = s.GetFilteredReviews(ctx)
	if len(got) != 0 {
		t.Fatalf("expected AND across dimensions, got %d", len(got))
	}

	s.ResetFilters()
	got, _ = s.GetFilteredReviews(ctx)
	if len(got) != 2 {
		t.Fatalf("reset must drop all constraints, got %d", len(got))
	}
}
