package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the pipeline observability counters exported at
// /metrics.
type Metrics struct {
	StageLatency  *prometheus.HistogramVec
	Requests      *prometheus.CounterVec
	RateLimited   prometheus.Counter
	CacheRequests *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tutor",
			Name:      "pipeline_stage_latency_seconds",
			Help:      "Per-stage latency of the answer pipeline.",
			Buckets:   prometheus.ExponentialBuckets(0.025, 2, 12),
		}, []string{"stage"}),
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutor",
			Name:      "pipeline_requests_total",
			Help:      "Pipeline requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tutor",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutor",
			Name:      "cache_requests_total",
			Help:      "Cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
	}
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) CountRequest(mode, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) CountCache(cache, result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(cache, result).Inc()
}
