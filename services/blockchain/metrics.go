package blockchain

import (
	"sync"

	"github.com/bsv-blockchain/chainstate/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBlockchainHeadersAdded     prometheus.Counter
	prometheusBlockchainBlocksIncluded   prometheus.Counter
	prometheusBlockchainRejected         prometheus.Counter
	prometheusBlockchainReorgs           prometheus.Counter
	prometheusBlockchainRollbacks        prometheus.Counter
	prometheusBlockchainBestHeaderHeight prometheus.Gauge
	prometheusBlockchainBestChainHeight  prometheus.Gauge
	prometheusBlockchainInclude          prometheus.Histogram
	prometheusBlockchainAddHeaders       prometheus.Histogram
)

var (
	prometheusMetricsInitOnce sync.Once
)

// initPrometheusMetrics registers the metrics of the blockchain service once,
// however many engines are created.
func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBlockchainHeadersAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockchain",
			Name:      "headers_added",
			Help:      "Number of headers linked into the header tree",
		},
	)

	prometheusBlockchainBlocksIncluded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockchain",
			Name:      "blocks_included",
			Help:      "Number of blocks applied to the output set",
		},
	)

	prometheusBlockchainRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockchain",
			Name:      "rejected",
			Help:      "Number of headers and blocks rejected for breaking a consensus rule",
		},
	)

	prometheusBlockchainReorgs = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockchain",
			Name:      "reorgs",
			Help:      "Number of times the best header moved to another branch",
		},
	)

	prometheusBlockchainRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockchain",
			Name:      "rollbacks",
			Help:      "Number of rolled back store transactions",
		},
	)

	prometheusBlockchainBestHeaderHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "blockchain",
			Name:      "best_header_height",
			Help:      "Height of the best header",
		},
	)

	prometheusBlockchainBestChainHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "blockchain",
			Name:      "best_chain_height",
			Help:      "Height of the last block applied to the output set",
		},
	)

	prometheusBlockchainInclude = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "blockchain",
			Name:      "include",
			Help:      "Histogram of block inclusion",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusBlockchainAddHeaders = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "blockchain",
			Name:      "add_headers",
			Help:      "Histogram of header batch insertion",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)
}
