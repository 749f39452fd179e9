package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the harmonization
// pipeline. A nil *Metrics disables recording, so callers never need
// to guard.
type Metrics struct {
	registry *prometheus.Registry

	harmonizedInstances *prometheus.CounterVec // by source_ontology and status
	triplesEmitted      prometheus.Counter
	transformFailures   *prometheus.CounterVec // by target_property
	conflictsDetected   prometheus.Gauge
	conflictsResolved   *prometheus.CounterVec // by strategy
	passDuration        prometheus.Histogram
	qualityScore        prometheus.Gauge
	graphTriples        prometheus.Gauge
}

// New creates the instruments and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		harmonizedInstances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "harmonize",
			Name:      "instances_total",
			Help:      "Total number of source instances processed",
		}, []string{"source_ontology", "status"}), // status: harmonized, failed

		triplesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "harmonize",
			Name:      "triples_emitted_total",
			Help:      "Total number of triples added to the harmonized graph",
		}),

		transformFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "harmonize",
			Name:      "transform_failures_total",
			Help:      "Values that failed transformation and were kept verbatim",
		}, []string{"target_property"}),

		conflictsDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loom",
			Subsystem: "conflict",
			Name:      "detected",
			Help:      "Conflicting property groups found by the last detection pass",
		}),

		conflictsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "conflict",
			Name:      "resolved_total",
			Help:      "Total number of conflicts resolved",
		}, []string{"strategy"}),

		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "loom",
			Subsystem: "harmonize",
			Name:      "pass_duration_seconds",
			Help:      "Harmonization pass duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		}),

		qualityScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loom",
			Subsystem: "quality",
			Name:      "score",
			Help:      "Quality score of the harmonized graph (0-100)",
		}),

		graphTriples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loom",
			Subsystem: "graph",
			Name:      "triples",
			Help:      "Current number of triples in the harmonized graph",
		}),
	}

	m.registry.MustRegister(
		m.harmonizedInstances,
		m.triplesEmitted,
		m.transformFailures,
		m.conflictsDetected,
		m.conflictsResolved,
		m.passDuration,
		m.qualityScore,
		m.graphTriples,
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// RecordPass records the outcome of one harmonization pass.
func (m *Metrics) RecordPass(sourceOntology string, harmonized, failed, triplesAdded int, duration time.Duration) {
	if m == nil {
		return
	}
	m.harmonizedInstances.WithLabelValues(sourceOntology, "harmonized").Add(float64(harmonized))
	m.harmonizedInstances.WithLabelValues(sourceOntology, "failed").Add(float64(failed))
	m.triplesEmitted.Add(float64(triplesAdded))
	m.passDuration.Observe(duration.Seconds())
}

// RecordTransformFailure counts a value kept verbatim after a failed
// transformation.
func (m *Metrics) RecordTransformFailure(targetProperty string) {
	if m == nil {
		return
	}
	m.transformFailures.WithLabelValues(targetProperty).Inc()
}

// RecordConflicts records the result of a detection pass.
func (m *Metrics) RecordConflicts(detected int) {
	if m == nil {
		return
	}
	m.conflictsDetected.Set(float64(detected))
}

// RecordResolution records conflicts resolved under a strategy.
func (m *Metrics) RecordResolution(strategy string, resolved int) {
	if m == nil {
		return
	}
	m.conflictsResolved.WithLabelValues(strategy).Add(float64(resolved))
}

// RecordQuality records the latest quality score.
func (m *Metrics) RecordQuality(score float64) {
	if m == nil {
		return
	}
	m.qualityScore.Set(score)
}

// RecordGraphSize records the current harmonized graph size.
func (m *Metrics) RecordGraphSize(triples int) {
	if m == nil {
		return
	}
	m.graphTriples.Set(float64(triples))
}
