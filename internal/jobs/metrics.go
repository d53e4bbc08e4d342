// Package jobmetrics records background job runs in Prometheus.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the job collectors. A nil *Metrics records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	records     *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer. A nil registerer means
// the default Prometheus registry, registered once per process.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = register(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return register(registerer)
}

// Run executes fn as one run of job. fn returns the number of records it
// touched; they are counted even when fn fails. Run returns fn's error.
func (m *Metrics) Run(job string, fn func() (int64, error)) error {
	start := time.Now()
	records, err := fn()
	if m == nil {
		return err
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	} else {
		m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
	m.runs.WithLabelValues(job, status).Inc()
	m.duration.WithLabelValues(job).Observe(time.Since(start).Seconds())
	if records > 0 {
		m.records.WithLabelValues(job).Add(float64(records))
	}
	return err
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "novaq_job_runs_total",
			Help: "Job runs by job name and outcome.",
		}, []string{"job", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "novaq_job_duration_seconds",
			Help:    "Job run duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "novaq_job_records_total",
			Help: "Reference rows loaded or audit rows deleted by jobs.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "novaq_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}, []string{"job"}),
	}
	registerer.MustRegister(m.runs, m.duration, m.records, m.lastSuccess)
	return m
}
