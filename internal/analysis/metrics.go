package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// analysesTotal counts finished analyses by reachable-area outcome.
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitescore_analyses_total",
			Help: "Site analyses completed, by reachable-area outcome",
		},
		[]string{"outcome"},
	)

	// filterPassesTotal counts network-distance filter passes by entity
	// kind and the distance mode they measured.
	filterPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitescore_filter_passes_total",
			Help: "Network-distance filter passes, by entity kind and mode",
		},
		[]string{"kind", "mode"},
	)

	fetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitescore_fetch_failures_total",
			Help: "Site data fetches that failed after retries",
		},
		[]string{"dataset"},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitescore_analysis_duration_seconds",
			Help:    "Wall time of a site analysis including data fetches",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)
