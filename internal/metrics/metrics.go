package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors on a private registry, so several
// instances can coexist in one process. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	outcomes      *prometheus.CounterVec
	tiers         *prometheus.CounterVec
	verified      *prometheus.CounterVec
	alerts        *prometheus.CounterVec
	deadLettered  *prometheus.CounterVec
	retries       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	disasterScore prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.outcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_posts_processed_total",
		Help: "Posts processed, by outcome (duplicate, not_disaster, created, failed)",
	}, []string{"outcome"})
	m.tiers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_classifications_total",
		Help: "Classification results by tier",
	}, []string{"tier"})
	m.verified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_verifications_total",
		Help: "Corroboration verdicts",
	}, []string{"verified", "source"})
	m.alerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_alerts_total",
		Help: "Alert dispatch attempts by result",
	}, []string{"result"})
	m.deadLettered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_dead_lettered_total",
		Help: "Messages moved to the dead-letter queue",
	}, []string{"queue"})
	m.retries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_retries_total",
		Help: "Messages left for redelivery after a failure",
	}, []string{"queue"})
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sentinel_process_duration_seconds",
		Help:    "End-to-end processing time per post",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"path"})
	m.disasterScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinel_disaster_score",
		Help:    "Scores of persisted events",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	m.Registry.MustRegister(m.outcomes, m.tiers, m.verified, m.alerts,
		m.deadLettered, m.retries, m.duration, m.disasterScore)
	return m
}

func (m *Metrics) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Tier(tier string) {
	if m == nil {
		return
	}
	m.tiers.WithLabelValues(tier).Inc()
}

func (m *Metrics) Verdict(verified bool, source string) {
	if m == nil {
		return
	}
	v := "false"
	if verified {
		v = "true"
	}
	m.verified.WithLabelValues(v, source).Inc()
}

func (m *Metrics) Alert(result string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(result).Inc()
}

func (m *Metrics) DeadLettered(queue string) {
	if m == nil {
		return
	}
	m.deadLettered.WithLabelValues(queue).Inc()
}

func (m *Metrics) Retried(queue string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(queue).Inc()
}

func (m *Metrics) Observe(path string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(path).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Score(score float64) {
	if m == nil {
		return
	}
	m.disasterScore.Observe(score)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
