package workers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes send pool activity to Prometheus.
type Metrics struct {
	registry    prometheus.Registerer
	jobsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	queueDepth  prometheus.Gauge
	busyWorkers prometheus.Gauge
}

// InitMetrics registers the send pool metrics. A nil registerer uses the
// default one.
func InitMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registry: reg,
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "send_jobs_total",
				Help:      "Total number of send jobs",
			},
			[]string{"status"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "send_job_duration_seconds",
				Help:      "Duration of send jobs",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "send_queue_depth",
				Help:      "Number of send jobs waiting for a worker",
			},
		),
		busyWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "send_workers_busy",
				Help:      "Number of workers currently processing a job",
			},
		),
	}

	reg.MustRegister(
		m.jobsTotal,
		m.jobDuration,
		m.queueDepth,
		m.busyWorkers,
	)

	return m
}

// RecordJob records one finished job.
func (m *Metrics) RecordJob(status string, duration time.Duration) {
	m.jobsTotal.WithLabelValues(status).Inc()
	m.jobDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *Metrics) setQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) workerBusy(delta float64) {
	m.busyWorkers.Add(delta)
}
