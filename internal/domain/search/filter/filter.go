package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/textdex/internal/domain"
)

// Filter limits.
const (
	// MaxTitleLength is the maximum title query length in bytes.
	MaxTitleLength = 4096
	// MaxStatuses is the maximum number of allowed status values.
	MaxStatuses = 64
)

// TimeRange is an inclusive [start, end] range of epoch milliseconds.
// A range with start > end is valid and matches nothing.
type TimeRange struct {
	start int64
	end   int64
}

// NewTimeRange creates an inclusive TimeRange.
func NewTimeRange(start, end int64) TimeRange {
	return TimeRange{start: start, end: end}
}

// Start returns the inclusive lower bound.
func (r TimeRange) Start() int64 { return r.start }

// End returns the inclusive upper bound.
func (r TimeRange) End() int64 { return r.end }

// IsEmpty reports whether no value can fall inside the range.
func (r TimeRange) IsEmpty() bool { return r.start > r.end }

// Contains reports whether t lies in [start, end].
func (r TimeRange) Contains(t int64) bool { return t >= r.start && t <= r.end }

// Spec is a validated structured filter.
// An absent title or empty status set adds no constraint; the time range always applies.
type Spec struct {
	title     string
	statuses  []string
	timeRange TimeRange
}

// New validates and creates a Spec. Statuses are de-duplicated in first-seen order.
// A whitespace-only title is treated as absent.
func New(title string, statuses []string, tr TimeRange) (Spec, error) {
	if len(title) > MaxTitleLength {
		return Spec{}, fmt.Errorf("%w: title too long (max %d bytes)", domain.ErrInvalidFilter, MaxTitleLength)
	}
	if strings.TrimSpace(title) == "" {
		title = ""
	}

	var uniq []string
	for _, s := range statuses {
		if s == "" {
			return Spec{}, fmt.Errorf("%w: status value must not be empty", domain.ErrInvalidFilter)
		}
		if !slices.Contains(uniq, s) {
			uniq = append(uniq, s)
		}
	}
	if len(uniq) > MaxStatuses {
		return Spec{}, fmt.Errorf("%w: too many statuses (max %d)", domain.ErrInvalidFilter, MaxStatuses)
	}

	return Spec{title: title, statuses: uniq, timeRange: tr}, nil
}

// HasTitle reports whether a title clause applies.
func (s Spec) HasTitle() bool { return s.title != "" }

// Title returns the title query text.
func (s Spec) Title() string { return s.title }

// HasStatuses reports whether a status clause applies.
func (s Spec) HasStatuses() bool { return len(s.statuses) > 0 }

// Statuses returns a copy of the allowed status values.
func (s Spec) Statuses() []string { return slices.Clone(s.statuses) }

// TimeRange returns the inclusive time range.
func (s Spec) TimeRange() TimeRange { return s.timeRange }
