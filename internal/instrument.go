package accountstats

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values of accountstats_backend_queries_total
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// InstrumentedBackend wraps a Backend and records every query it runs.
// It holds no results between calls.
type InstrumentedBackend struct {
	Backend
	queries  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewInstrumentedBackend registers the backend metrics on reg
func NewInstrumentedBackend(backend Backend, reg prometheus.Registerer) *InstrumentedBackend {
	factory := promauto.With(reg)
	return &InstrumentedBackend{
		Backend: backend,
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accountstats",
			Name:      "backend_queries_total",
			Help:      "Range queries sent to the metrics backend, by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "accountstats",
			Name:      "backend_query_duration_seconds",
			Help:      "Latency of range queries sent to the metrics backend.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (b *InstrumentedBackend) QueryRange(ctx context.Context, query string, r Range) ([]TimeSeries, error) {
	start := time.Now()
	series, err := b.Backend.QueryRange(ctx, query, r)
	b.duration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		b.queries.WithLabelValues(OutcomeError).Inc()
	case len(series) == 0:
		b.queries.WithLabelValues(OutcomeEmpty).Inc()
	default:
		b.queries.WithLabelValues(OutcomeOK).Inc()
	}
	return series, err
}
