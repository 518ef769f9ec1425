// Package metric provides Prometheus instruments for the dataspace client:
// discovery fan-out outcomes, decision polling, and access-request writes.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Branch outcome labels for discovery fan-out instruments.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
)

// Metrics contains all client-level metrics. A nil *Metrics is valid and
// records nothing, so library callers can opt out of observability.
type Metrics struct {
	DiscoveryBranches  *prometheus.CounterVec
	DiscoveryDuration  prometheus.Histogram
	SourcesDiscovered  prometheus.Gauge
	DecisionPolls      *prometheus.CounterVec
	DecisionsObserved  prometheus.Gauge
	AccessRequests     *prometheus.CounterVec
	ReadingsLoaded     *prometheus.CounterVec
	ReadingRowsDropped prometheus.Counter
}

// New creates a Metrics instance with all client instruments.
func New() *Metrics {
	return &Metrics{
		DiscoveryBranches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "heatspace",
				Subsystem: "discovery",
				Name:      "branches_total",
				Help:      "Discovery fan-out branches by traversal level and outcome",
			},
			[]string{"level", "outcome"},
		),
		DiscoveryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "heatspace",
				Subsystem: "discovery",
				Name:      "duration_seconds",
				Help:      "Wall time of a full discovery pass",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SourcesDiscovered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "heatspace",
				Subsystem: "discovery",
				Name:      "sources",
				Help:      "Sources returned by the most recent discovery pass",
			},
		),
		DecisionPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "heatspace",
				Subsystem: "decisions",
				Name:      "polls_total",
				Help:      "Decision poll attempts by outcome",
			},
			[]string{"outcome"},
		),
		DecisionsObserved: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "heatspace",
				Subsystem: "decisions",
				Name:      "observed",
				Help:      "Decision resources folded in the most recent poll",
			},
		),
		AccessRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "heatspace",
				Subsystem: "access",
				Name:      "requests_total",
				Help:      "Access request writes by outcome",
			},
			[]string{"outcome"},
		),
		ReadingsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "heatspace",
				Subsystem: "readings",
				Name:      "loads_total",
				Help:      "Reading payload loads by outcome",
			},
			[]string{"outcome"},
		),
		ReadingRowsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "heatspace",
				Subsystem: "readings",
				Name:      "rows_dropped_total",
				Help:      "Payload rows discarded by validation",
			},
		),
	}
}

// Register registers all instruments with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	collectors := []prometheus.Collector{
		m.DiscoveryBranches,
		m.DiscoveryDuration,
		m.SourcesDiscovered,
		m.DecisionPolls,
		m.DecisionsObserved,
		m.AccessRequests,
		m.ReadingsLoaded,
		m.ReadingRowsDropped,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Branch records one discovery fan-out branch outcome.
func (m *Metrics) Branch(level string, ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeSkipped
	}
	m.DiscoveryBranches.WithLabelValues(level, outcome).Inc()
}

// DiscoveryPass records the duration and yield of a discovery pass.
func (m *Metrics) DiscoveryPass(d time.Duration, sources int) {
	if m == nil {
		return
	}
	m.DiscoveryDuration.Observe(d.Seconds())
	m.SourcesDiscovered.Set(float64(sources))
}

// Poll records one decision poll outcome and the decisions it folded.
func (m *Metrics) Poll(err error, observed int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DecisionPolls.WithLabelValues(outcome).Inc()
	if err == nil {
		m.DecisionsObserved.Set(float64(observed))
	}
}

// Request records one access-request write outcome.
func (m *Metrics) Request(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.AccessRequests.WithLabelValues(outcome).Inc()
}

// ReadingsLoad records one payload load and the rows dropped by validation.
func (m *Metrics) ReadingsLoad(err error, dropped int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ReadingsLoaded.WithLabelValues(outcome).Inc()
	if dropped > 0 {
		m.ReadingRowsDropped.Add(float64(dropped))
	}
}
