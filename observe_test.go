package textdex

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithPrometheus_CountsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := openMem(t, WithPrometheus(reg))
	ctx := context.Background()

	require.NoError(t, c.Upsert(ctx, []Document{article(t, "1", "a", "s", 1)}))
	_, err := c.Find().Do(ctx)
	require.NoError(t, err)
	_, err = c.SearchText(ctx, "title::lucene", 0, 10)
	require.Error(t, err)

	obs := c.obs.metrics.operations
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.WithLabelValues("upsert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.WithLabelValues("search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.WithLabelValues("search_text", "error")))
}

func TestWithPrometheus_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := openMem(t, WithPrometheus(reg))
	b := openMem(t, WithPrometheus(reg))

	assert.Same(t, a.obs.metrics.operations, b.obs.metrics.operations)
}

func TestWithPrometheus_IncompatibleCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "textdex",
		Subsystem: "client",
		Name:      "operations_total",
		Help:      "Total client operations by type and status.",
	}, []string{"operation", "status"})))

	_, err := Open(WithMemOnly(), WithPrometheus(reg))
	assert.ErrorIs(t, err, ErrInitialization)
}

func TestObserver_NilIsNoop(t *testing.T) {
	var o *observer
	o.observe("upsert", time.Now(), nil)
}
