package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Total number of searches by retrieval source and outcome",
		},
		[]string{"source", "status"}, // source: index / subtree / none
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each search pipeline stage in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of nodes returned per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	IndexErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_errors_total",
			Help:      "Total index backend errors",
		},
		[]string{"backend"},
	)
)

// Search pipeline stage labels.
const (
	StageCompile    = "compile"
	StageRetrieve   = "retrieve"
	StagePostFilter = "postfilter"
	StageSort       = "sort"
	SourceIndex     = "index"
	SourceSubtree   = "subtree"
	SourceNone      = "none"
	StatusOK        = "ok"
	StatusError     = "error"
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search collectors. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchTotal, SearchStageDuration, SearchResults, IndexErrorsTotal)
	searchMetricsRegistered = true
}
