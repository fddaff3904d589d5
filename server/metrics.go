package server

import (
	"math"

	"github.com/ansel1/tally/results"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirrors the statistics on the card.
type Metrics struct {
	Checks     *prometheus.GaugeVec
	Total      prometheus.Gauge
	RunSeconds prometheus.Gauge
	Updates    prometheus.Counter
}

// NewMetrics registers the card metrics with reg. A nil reg gets a private
// registry that nothing scrapes.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Checks: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "tally_checks",
			Help: "Checks in the latest run by result.",
		}, []string{"result"}),

		Total: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tally_checks_total_reported",
			Help: "Total results as reported by the producer of the statistics.",
		}),

		RunSeconds: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tally_run_time_seconds",
			Help: "Elapsed time of the latest run.",
		}),

		Updates: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tally_statistics_updates_total",
			Help: "Statistics records accepted over HTTP.",
		}),
	}
}

// Observe sets the gauges from stats. An absent count drops its series and
// an absent total or time reads NaN, so nothing from an earlier run lingers.
func (m *Metrics) Observe(stats results.Statistics) {
	counts := []struct {
		field results.Field
		label string
		value int
	}{
		{results.FieldSuccess, "passed", stats.Success},
		{results.FieldFailed, "failed", stats.Failed},
		{results.FieldSkipped, "skipped", stats.Skipped},
	}
	for _, c := range counts {
		if !stats.Has(c.field) {
			m.Checks.DeleteLabelValues(c.label)
			continue
		}
		m.Checks.WithLabelValues(c.label).Set(float64(c.value))
	}

	total := math.NaN()
	if stats.Has(results.FieldTotal) {
		total = float64(stats.Total)
	}
	m.Total.Set(total)

	seconds := math.NaN()
	if stats.Has(results.FieldTime) {
		seconds = stats.Time / 1000
	}
	m.RunSeconds.Set(seconds)
}
