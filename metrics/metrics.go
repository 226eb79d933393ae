// Package metrics exposes the counters of a sort as Prometheus collectors.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xsort"

// Phase names used as the "phase" label.
const (
	PhaseChunk = "chunk"
	PhaseMerge = "merge"
)

type Metrics struct {
	recordsRead      prometheus.Counter
	recordsDiscarded prometheus.Counter
	runsWritten      prometheus.Counter
	recordsMerged    prometheus.Counter
	errors           *prometheus.CounterVec
	phaseDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is handy in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Total number of records parsed from the input",
		}),
		recordsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_discarded_total",
			Help:      "Total number of input lines skipped because they did not parse",
		}),
		runsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_written_total",
			Help:      "Total number of sorted runs persisted",
		}),
		recordsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_merged_total",
			Help:      "Total number of records written to the merged output",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of aborted phases by phase",
		}, []string{"phase"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall time spent in each phase",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"phase"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.recordsRead,
			m.recordsDiscarded,
			m.runsWritten,
			m.recordsMerged,
			m.errors,
			m.phaseDuration,
		)
	}
	return m
}

func (m *Metrics) RecordRead(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsRead.Add(float64(n))
}

func (m *Metrics) RecordDiscarded(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsDiscarded.Add(float64(n))
}

func (m *Metrics) RunWritten() {
	if m == nil {
		return
	}
	m.runsWritten.Inc()
}

func (m *Metrics) RecordMerged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsMerged.Add(float64(n))
}

func (m *Metrics) PhaseFailed(phase string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(phase).Inc()
}

func (m *Metrics) ObservePhase(phase string, took time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(took.Seconds())
}
