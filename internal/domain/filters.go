package domain

import "time"

// DateRange is inclusive on both ends.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Filters is the active filter specification. A nil/empty field means no
// constraint on that dimension; present fields combine with AND, values
// within a field with OR.
type Filters struct {
	Rating    []int      `json:"rating,omitempty"`   // buckets 1-5
	Category  []string   `json:"category,omitempty"` // matches any review category
	Channel   []string   `json:"channel,omitempty"`
	Status    []string   `json:"status,omitempty"`
	Property  []string   `json:"property,omitempty"` // property ids
	DateRange *DateRange `json:"dateRange,omitempty"`
}

// Merge overlays the fields present in other onto f, leaving absent
// dimensions untouched.
func (f Filters) Merge(other Filters) Filters {
	if other.Rating != nil {
		f.Rating = other.Rating
	}
	if other.Category != nil {
		f.Category = other.Category
	}
	if other.Channel != nil {
		f.Channel = other.Channel
	}
	if other.Status != nil {
		f.Status = other.Status
	}
	if other.Property != nil {
		f.Property = other.Property
	}
	if other.DateRange != nil {
		f.DateRange = other.DateRange
	}
	return f
}
