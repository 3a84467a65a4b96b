package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vehicle_icon_xref"

// Metrics holds the Prometheus counters, histograms, and gauges for a
// cross-reference or lookup run. They live on a private registry so a batch
// run can push them to a Pushgateway.
type Metrics struct {
	Registry *prometheus.Registry

	IconsLoaded      prometheus.Gauge
	FleetRowsRead    prometheus.Counter
	FleetRowsSkipped *prometheus.CounterVec // labels: reason={body_type,incomplete}
	FleetVariants    prometheus.Gauge
	VariantsMatched  *prometheus.CounterVec // labels: status={covered,weak_match,clearly_missing}
	CandidateCache   *prometheus.CounterVec // labels: result={hit,miss}
	FallbackMatches  prometheus.Counter

	LookupRowsUsed *prometheus.CounterVec // labels: source={covered,weak}
	LookupMakes    *prometheus.GaugeVec   // labels: outcome={emitted,dropped}

	MessagesProduced prometheus.Counter
	StageDuration    *prometheus.HistogramVec // labels: stage
	LastSuccess      prometheus.Gauge
}

// NewMetrics creates all run metrics registered on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		IconsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "icons_loaded",
			Help:      "Icon catalog entries joined from specs and icon files.",
		}),
		FleetRowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fleet_rows_read_total",
			Help:      "Fleet census rows read.",
		}),
		FleetRowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fleet_rows_skipped_total",
			Help:      "Fleet census rows skipped by reason.",
		}, []string{"reason"}),
		FleetVariants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fleet_variants",
			Help:      "Distinct (make, genmodel, model, year) variants aggregated.",
		}),
		VariantsMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variants_matched_total",
			Help:      "Variants scored, by coverage status.",
		}, []string{"status"}),
		CandidateCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_cache_total",
			Help:      "Candidate set cache lookups by result.",
		}, []string{"result"}),
		FallbackMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_matches_total",
			Help:      "Variants scored against make-token overlap candidates instead of an exact canonical make.",
		}),
		LookupRowsUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_rows_used_total",
			Help:      "Tier CSV rows folded into the lookup, by source tier.",
		}, []string{"source"}),
		LookupMakes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookup_makes",
			Help:      "Makes emitted to or dropped from the lookup.",
		}, []string{"outcome"}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Messages written to the Kafka sink.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	m.Registry.MustRegister(
		m.IconsLoaded,
		m.FleetRowsRead,
		m.FleetRowsSkipped,
		m.FleetVariants,
		m.VariantsMatched,
		m.CandidateCache,
		m.FallbackMatches,
		m.LookupRowsUsed,
		m.LookupMakes,
		m.MessagesProduced,
		m.StageDuration,
		m.LastSuccess,
	)

	return m
}
