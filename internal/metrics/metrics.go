package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the instrumentation for rate fetching and table computation.
type Metrics struct {
	FetchTotal      prometheus.CounterVec
	FetchDuration   prometheus.HistogramVec
	CacheEvents     prometheus.CounterVec
	PricingRequests prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		FetchTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_fetch_total",
				Help: "Rate fetch attempts per source and outcome",
			},
			[]string{"source", "outcome"},
		),
		FetchDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fx_fetch_duration_seconds",
				Help:    "Rate fetch latency per source",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 8), // 50ms .. ~6.4s
			},
			[]string{"source"},
		),
		CacheEvents: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_cache_events_total",
				Help: "Rate cache events (hit, miss, stale, invalidate)",
			},
			[]string{"event"},
		),
		PricingRequests: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_requests_total",
				Help: "Price table requests per outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordFetch records one fetch attempt against a source.
func (m *Metrics) RecordFetch(source string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchTotal.WithLabelValues(source, outcome).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordCacheEvent records a cache hit/miss/stale/invalidate.
func (m *Metrics) RecordCacheEvent(event string) {
	m.CacheEvents.WithLabelValues(event).Inc()
}

// RecordPricing records a table computation outcome ("ok" or "invalid").
func (m *Metrics) RecordPricing(outcome string) {
	m.PricingRequests.WithLabelValues(outcome).Inc()
}
