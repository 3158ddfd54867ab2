package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/textdex/internal/domain"
	"github.com/kailas-cloud/textdex/internal/domain/search/filter"
	"github.com/kailas-cloud/textdex/internal/domain/search/page"
	"github.com/kailas-cloud/textdex/internal/domain/search/result"
	"github.com/kailas-cloud/textdex/internal/metrics"
	"github.com/kailas-cloud/textdex/internal/snapshot"
)

// Op labels for query metrics.
const (
	OpSearch     = "search"
	OpSearchText = "search_text"
	OpCount      = "count"
	OpCountQuery = "count_query"
)

// Service runs searches and counts. Each call binds to the snapshot current
// at call start and uses only that snapshot.
type Service struct {
	snapshots Snapshots
	composer  Composer
	executor  Executor
	guard     Guard
}

// New creates a search service.
func New(snapshots Snapshots, composer Composer, executor Executor, g Guard) *Service {
	return &Service{snapshots: snapshots, composer: composer, executor: executor, guard: g}
}

// Search returns the page window of documents matching spec, best first.
func (s *Service) Search(ctx context.Context, spec filter.Spec, p page.Page) (result.Page, error) {
	return s.search(ctx, OpSearch, p, func() (query.Query, error) {
		return s.composer.Compose(spec)
	})
}

// SearchText runs a raw query-string search against the title, bypassing structured filters.
func (s *Service) SearchText(ctx context.Context, raw string, p page.Page) (result.Page, error) {
	return s.search(ctx, OpSearchText, p, func() (query.Query, error) {
		return s.composer.Parse(raw)
	})
}

// Count returns the number of documents matching spec.
func (s *Service) Count(ctx context.Context, spec filter.Spec) (int64, error) {
	return s.count(ctx, OpCount, func() (query.Query, error) {
		return s.composer.Compose(spec)
	})
}

// CountQuery counts the matches of a pre-composed query.
func (s *Service) CountQuery(ctx context.Context, q query.Query) (int64, error) {
	return s.count(ctx, OpCountQuery, func() (query.Query, error) {
		if q == nil {
			return nil, fmt.Errorf("%w: nil query", domain.ErrInvalidFilter)
		}
		return q, nil
	})
}

func (s *Service) search(
	ctx context.Context, op string, p page.Page, build func() (query.Query, error),
) (result.Page, error) {
	start := time.Now()
	var res result.Page
	err := s.run(ctx, build, func(v snapshot.View, q query.Query) error {
		var err error
		res, err = s.executor.Search(ctx, v, q, p)
		return err
	})
	observe(op, start, err)
	if err != nil {
		return result.Page{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) count(ctx context.Context, op string, build func() (query.Query, error)) (int64, error) {
	start := time.Now()
	var n int64
	err := s.run(ctx, build, func(v snapshot.View, q query.Query) error {
		var err error
		n, err = s.executor.Count(ctx, v, q)
		return err
	})
	observe(op, start, err)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// run composes the query and executes it on a pinned snapshot, both under the read guard.
func (s *Service) run(
	ctx context.Context, build func() (query.Query, error), exec func(snapshot.View, query.Query) error,
) error {
	return s.guard.Read(ctx, func() error {
		q, err := build()
		if err != nil {
			return err
		}
		h, err := s.snapshots.Acquire()
		if err != nil {
			return err
		}
		defer h.Release()
		return exec(h.View(), q)
	})
}

func observe(op string, start time.Time, err error) {
	metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(op, errorKind(err)).Inc()
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrQueryParse):
		return "parse"
	case errors.Is(err, domain.ErrExecution):
		return "execution"
	case errors.Is(err, domain.ErrInvalidFilter), errors.Is(err, domain.ErrInvalidPage):
		return "invalid"
	case errors.Is(err, domain.ErrClosed):
		return "closed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
