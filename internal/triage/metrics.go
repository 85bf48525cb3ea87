package triage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	TriagesTotal       *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	QueueWait          prometheus.Histogram
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logtriage_triages_total",
			Help: "Total triage requests by outcome.",
		}, []string{"outcome"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "logtriage_generation_duration_seconds",
			Help:    "Duration of generation calls in seconds, by outcome.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~256s
		}, []string{"outcome"}),
		QueueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "logtriage_generation_queue_wait_seconds",
			Help:    "Time spent waiting for the generation lock.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms .. ~43m
		}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.GenerationDuration,
		m.QueueWait,
	)

	return m
}

func (m *Metrics) observeQueueWait(d time.Duration) {
	if m == nil {
		return
	}
	m.QueueWait.Observe(d.Seconds())
}
