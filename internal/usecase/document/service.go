package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/textdex/internal/domain"
	domdoc "github.com/kailas-cloud/textdex/internal/domain/document"
	"github.com/kailas-cloud/textdex/internal/engine"
	"github.com/kailas-cloud/textdex/internal/metrics"
)

// DefaultMaxBatchSize caps the number of documents in one upsert.
const DefaultMaxBatchSize = 1000

// Service is the write gateway: every batch is staged and committed as one unit
// under the exclusive guard, then a fresh snapshot is published.
type Service struct {
	writer       Writer
	snapshots    Refresher
	guard        Guard
	log          *zap.Logger
	maxBatchSize int
}

// New creates a document write service.
func New(w Writer, snapshots Refresher, g Guard, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		writer:       w,
		snapshots:    snapshots,
		guard:        g,
		log:          log,
		maxBatchSize: DefaultMaxBatchSize,
	}
}

// WithMaxBatchSize configures the batch size limit.
func (s *Service) WithMaxBatchSize(n int) *Service {
	if n > 0 {
		s.maxBatchSize = n
	}
	return s
}

// Upsert writes docs as one batch. Documents with an existing id replace it.
// On success every document is visible to searches that start afterwards.
// On *domain.CommitError nothing from the batch is visible and the caller may retry.
// A failed snapshot refresh is logged and does not fail the upsert.
func (s *Service) Upsert(ctx context.Context, docs []domdoc.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.validate(docs); err != nil {
		return err
	}

	err := s.guard.Write(ctx, func() error {
		start := time.Now()
		if err := s.commit(docs); err != nil {
			if !errors.Is(err, domain.ErrClosed) {
				metrics.CommitErrorsTotal.Inc()
			}
			return err
		}
		metrics.CommitDuration.Observe(time.Since(start).Seconds())
		metrics.UpsertDocumentsTotal.Add(float64(len(docs)))

		if err := s.snapshots.Refresh(); err != nil {
			s.log.Error("snapshot refresh after commit failed",
				zap.Int("docs", len(docs)),
				zap.Error(err),
			)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert %d documents: %w", len(docs), err)
	}

	s.log.Debug("batch committed", zap.Int("docs", len(docs)))
	return nil
}

func (s *Service) validate(docs []domdoc.Document) error {
	if len(docs) > s.maxBatchSize {
		return fmt.Errorf("%w: batch of %d exceeds max %d", domain.ErrInvalidDocument, len(docs), s.maxBatchSize)
	}
	for i, d := range docs {
		if d.ID() == "" {
			return fmt.Errorf("%w: document %d has an empty id", domain.ErrInvalidDocument, i)
		}
	}
	return nil
}

// commit stages every document then commits once. Staged work is discarded on failure.
// A writer closed underneath the batch reports domain.ErrClosed, which is not retryable.
func (s *Service) commit(docs []domdoc.Document) error {
	for _, d := range docs {
		if err := s.writer.Upsert(d); err != nil {
			s.writer.Rollback()
			return commitErr(len(docs), err)
		}
	}
	if err := s.writer.Commit(); err != nil {
		return commitErr(len(docs), err)
	}
	return nil
}

func commitErr(n int, err error) error {
	if errors.Is(err, engine.ErrIndexClosed) {
		return fmt.Errorf("%w: %w", domain.ErrClosed, err)
	}
	return &domain.CommitError{Docs: n, Err: err}
}

// IsRetryable reports whether err means the whole batch may be resubmitted.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrCommit)
}
