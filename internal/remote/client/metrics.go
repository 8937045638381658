package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/t32remote/internal/remote/status"
)

// Metrics holds the Prometheus collectors of a client. A nil *Metrics
// records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rounds   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "t32rem",
			Name:      "calls_total",
			Help:      "Remote API calls by entry point.",
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "t32rem",
			Name:      "failures_total",
			Help:      "Failed Remote API calls by entry point and error kind.",
		}, []string{"op", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "t32rem",
			Name:      "call_duration_seconds",
			Help:      "Remote API call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
		rounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "t32rem",
			Name:      "window_rounds",
			Help:      "Rounds needed to read window content.",
			Buckets:   prometheus.LinearBuckets(1, 2, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.failures, m.duration, m.rounds)
	}
	return m
}

func (m *Metrics) observe(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) record(op string, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(op).Inc()
	if err == nil {
		return
	}
	kind := "other"
	if k := status.KindOf(err); k != nil {
		kind = k.Name()
	}
	m.failures.WithLabelValues(op, kind).Inc()
}

func (m *Metrics) window(rounds int) {
	if m == nil {
		return
	}
	m.rounds.Observe(float64(rounds))
}
