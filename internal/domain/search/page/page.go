package page

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/textdex/internal/domain"
)

// Page is a validated [offset, offset+limit) window over a ranked result list.
type Page struct {
	offset int
	limit  int
}

// New validates and creates a Page. Negative values and windows whose end
// would overflow an int are rejected with domain.ErrInvalidPage.
func New(offset, limit int) (Page, error) {
	if offset < 0 {
		return Page{}, fmt.Errorf("%w: offset must be non-negative, got %d", domain.ErrInvalidPage, offset)
	}
	if limit < 0 {
		return Page{}, fmt.Errorf("%w: limit must be non-negative, got %d", domain.ErrInvalidPage, limit)
	}
	if offset > math.MaxInt-limit {
		return Page{}, fmt.Errorf("%w: offset+limit overflows", domain.ErrInvalidPage)
	}
	return Page{offset: offset, limit: limit}, nil
}

// Offset returns the number of leading hits to skip.
func (p Page) Offset() int { return p.offset }

// Limit returns the maximum number of hits in the window.
func (p Page) Limit() int { return p.limit }

// End returns offset+limit, the number of top hits needed to fill the window.
func (p Page) End() int { return p.offset + p.limit }

// IsEmpty reports whether the window can hold no hits.
func (p Page) IsEmpty() bool { return p.limit == 0 }
