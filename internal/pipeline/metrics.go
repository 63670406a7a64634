package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts runs by outcome and times them. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticketcast",
			Subsystem: "validation",
			Name:      "runs_total",
			Help:      "Validation runs by outcome kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ticketcast",
			Subsystem: "validation",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a validation run, fetch to outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"status"}),
	}
	reg.MustRegister(m.runs, m.duration)
	return m
}

func (m *Metrics) observe(r Report, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(r.Kind())).Inc()
	m.duration.WithLabelValues(statusClass(r.StatusCode())).Observe(d.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
