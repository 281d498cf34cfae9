// Package metrics counts index and lookup outcomes of an analysis run and writes them
// as a Prometheus textfile for the node exporter to pick up.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jgoulah/gridtariff/internal/tariff"
	"github.com/jgoulah/gridtariff/pkg/models"
)

// Recorder holds the counters of one run on a private registry
type Recorder struct {
	registry   *prometheus.Registry
	records    *prometheus.CounterVec
	lookups    *prometheus.CounterVec
	fuzzyScore prometheus.Histogram
}

// NewRecorder creates a recorder with all series registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridtariff_tariff_records_total",
				Help: "Tariff records seen by the index builder by outcome.",
			},
			[]string{"outcome"},
		),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridtariff_lookups_total",
				Help: "Rate lookups by party and the strategy that resolved them.",
			},
			[]string{"party", "strategy"},
		),
		fuzzyScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridtariff_fuzzy_score",
				Help:    "Similarity score of accepted fuzzy provider matches.",
				Buckets: []float64{0.45, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			},
		),
	}
	r.registry.MustRegister(r.records, r.lookups, r.fuzzyScore)
	return r
}

// ObserveIndex records the build statistics of a tariff index
func (r *Recorder) ObserveIndex(s tariff.Stats) {
	r.records.WithLabelValues("indexed").Add(float64(s.Indexed))
	r.records.WithLabelValues("out_of_range").Add(float64(s.OutOfRange))
	r.records.WithLabelValues("invalid_rate").Add(float64(s.InvalidRate))
	r.records.WithLabelValues("collision").Add(float64(s.Collisions))
}

// ObserveAudit records how every lookup of a run was resolved
func (r *Recorder) ObserveAudit(rows []models.AuditRow) {
	for _, row := range rows {
		r.lookups.WithLabelValues("candidate", strategyLabel(row.CandidateStrategy)).Inc()
		r.lookups.WithLabelValues("incumbent", strategyLabel(row.IncumbentStrategy)).Inc()
		if row.FallbackScore != nil {
			r.fuzzyScore.Observe(*row.FallbackScore)
		}
	}
}

func strategyLabel(s string) string {
	if s == "" {
		return "unresolved"
	}
	return s
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all series to path atomically
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
