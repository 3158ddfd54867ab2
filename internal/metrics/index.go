package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "textdex"

// Refresh outcomes for SnapshotRefreshTotal.
const (
	RefreshSwapped = "swapped"
	RefreshNoop    = "noop"
	RefreshError   = "error"
)

// Index and query Prometheus metrics.
var (
	UpsertDocumentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upsert_documents_total",
			Help:      "Total number of documents committed by upsert batches",
		},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_duration_seconds",
			Help:      "Duration of index write+commit in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	CommitErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commit_errors_total",
			Help:      "Total number of failed upsert batches",
		},
	)

	SnapshotRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_refresh_total",
			Help:      "Snapshot refresh attempts by result",
		},
		[]string{"result"}, // swapped / noop / error
	)

	SnapshotGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_generation",
			Help:      "Generation of the current read snapshot",
		},
	)

	SnapshotStale = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_stale",
			Help:      "1 when the current snapshot lags the last commit",
		},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Search and count duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"op"},
	)

	QueryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Failed searches and counts by error kind",
		},
		[]string{"op", "kind"},
	)
)

var registerOnce sync.Once

// Register registers all textdex collectors with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			UpsertDocumentsTotal,
			CommitDuration,
			CommitErrorsTotal,
			SnapshotRefreshTotal,
			SnapshotGeneration,
			SnapshotStale,
			QueryDuration,
			QueryErrorsTotal,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}

// SetStale records whether the read snapshot lags the writer.
func SetStale(stale bool) {
	if stale {
		SnapshotStale.Set(1)
		return
	}
	SnapshotStale.Set(0)
}
