package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Graph metrics
	GraphBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydra_graph_builds_total",
		Help: "Total number of liquidity graph builds",
	})

	GraphBuildErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydra_graph_build_errors_total",
		Help: "Total number of failed liquidity graph builds",
	})

	GraphEdgeCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hydra_graph_edge_count",
		Help: "Number of directed edges in the last built liquidity graph",
	})

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"direction", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydra_quote_duration_seconds",
			Help:    "Quote request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"direction"},
	)

	CandidateRoutes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hydra_candidate_routes",
		Help:    "Number of candidate routes evaluated per quote request",
		Buckets: []float64{1, 2, 3, 4, 6, 8},
	})

	RouteQuoteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_route_quote_failures_total",
			Help: "Total number of candidate routes dropped during quoting",
		},
		[]string{"pool_kind"},
	)

	// Pool state metrics
	StateReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_state_reads_total",
			Help: "Total number of chain state reads",
		},
		[]string{"pallet", "status"},
	)

	SnapshotRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_snapshot_refreshes_total",
			Help: "Total number of pool state snapshot refreshes",
		},
		[]string{"pool_kind", "status"},
	)

	// Swap metrics
	SwapCallRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_swap_call_requests_total",
			Help: "Total number of swap call build requests",
		},
		[]string{"direction", "status"},
	)

	// Flow metrics
	FlowResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydra_flow_resets_total",
		Help: "Total number of swap flow state resets caused by a pair change",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydra_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
