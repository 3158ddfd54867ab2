package textdex

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/textdex/internal/domain/schema"
	searchrepo "github.com/kailas-cloud/textdex/internal/repository/search"
	documentuc "github.com/kailas-cloud/textdex/internal/usecase/document"
)

// DefaultPath is the index directory used when neither WithPath nor WithMemOnly is given.
const DefaultPath = "indexDir"

// Option configures Open.
type Option func(*clientConfig)

type clientConfig struct {
	path           string
	memOnly        bool
	logger         *zap.Logger
	metricsReg     prometheus.Registerer
	mode           ConcurrencyMode
	maxBatchSize   int
	parseCacheSize int
	extraFields    []fieldDef
	initialDocs    []Document
}

type fieldDef struct {
	name string
	typ  FieldType
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		path:           DefaultPath,
		mode:           ConcurrencySnapshot,
		maxBatchSize:   documentuc.DefaultMaxBatchSize,
		parseCacheSize: searchrepo.DefaultParseCacheSize,
	}
}

func (c *clientConfig) schema() (Schema, error) {
	if len(c.extraFields) == 0 {
		return schema.Article(), nil
	}
	fields := make([]schema.Field, 0, len(c.extraFields))
	for _, fd := range c.extraFields {
		f, err := schema.NewField(fd.name, fd.typ)
		if err != nil {
			return Schema{}, err
		}
		fields = append(fields, f)
	}
	return schema.Article().Extend(fields...)
}

// WithPath opens or creates the index in dir.
func WithPath(dir string) Option {
	return func(c *clientConfig) {
		c.path = dir
		c.memOnly = false
	}
}

// WithMemOnly keeps the index in memory. Nothing survives Close.
func WithMemOnly() Option {
	return func(c *clientConfig) { c.memOnly = true }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithConcurrency selects the read/commit exclusion mode.
func WithConcurrency(m ConcurrencyMode) Option {
	return func(c *clientConfig) { c.mode = m }
}

// WithMaxBatchSize caps the number of documents per Upsert.
func WithMaxBatchSize(n int) Option {
	return func(c *clientConfig) { c.maxBatchSize = n }
}

// WithParseCacheSize sets how many parsed text queries are cached. Zero or less disables the cache.
func WithParseCacheSize(n int) Option {
	return func(c *clientConfig) { c.parseCacheSize = n }
}

// WithField adds an indexed, stored field next to title, status and time.
// Only applies when the index is created.
func WithField(name string, ft FieldType) Option {
	return func(c *clientConfig) {
		c.extraFields = append(c.extraFields, fieldDef{name: name, typ: ft})
	}
}

// WithInitialDocuments loads docs through the normal write path before Open returns.
func WithInitialDocuments(docs ...Document) Option {
	return func(c *clientConfig) { c.initialDocs = append(c.initialDocs, docs...) }
}

// WithPrometheus registers per-client operation counts and durations on reg.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(c *clientConfig) { c.metricsReg = reg }
}
