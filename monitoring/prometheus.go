package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/mezonai/simplechain/logx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ValidationScope string

var (
	ScopeBlock ValidationScope = "block"
	ScopeChain ValidationScope = "chain"
)

type nodePromMetrics struct {
	nodeUpUnixSeconds   prometheus.Gauge
	blockHeight         prometheus.Gauge
	addBlockDuration    prometheus.Histogram
	blockSizeBytes      prometheus.Histogram
	addBlockFailures    prometheus.Counter
	validationRuns      *prometheus.CounterVec
	invalidBlocksFound  prometheus.Gauge
	chainValidationTime prometheus.Histogram
	panicCount          prometheus.Counter
}

func newNodePromMetrics() *nodePromMetrics {
	return &nodePromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "simplechain_node_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the node",
			},
		),
		blockHeight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "simplechain_block_height",
				Help: "The current block height",
			},
		),
		addBlockDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "simplechain_add_block_seconds",
				Help: "Duration in second from lock acquisition to persisted block",
			},
		),
		blockSizeBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "simplechain_block_size_bytes",
				Help: "The serialized block size in bytes",
			},
		),
		addBlockFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "simplechain_add_block_failures_total",
				Help: "The total number of aborted block additions",
			},
		),
		validationRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simplechain_validation_runs_total",
				Help: "The total number of validations by scope and outcome",
			},
			[]string{"scope", "result"},
		),
		invalidBlocksFound: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "simplechain_invalid_blocks",
				Help: "Number of invalid heights found by the latest chain validation",
			},
		),
		chainValidationTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "simplechain_chain_validation_seconds",
				Help: "Duration in second of a full chain validation",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "simplechain_panic_count",
				Help: "The total number of recovered panics",
			},
		),
	}
}

var (
	nodeMetrics *nodePromMetrics
	initOnce    sync.Once
)

// InitMetrics registers metrics on the default registry; repeated calls are no-ops.
// Recording functions do nothing until it has been called.
func InitMetrics() {
	initOnce.Do(func() {
		nodeMetrics = newNodePromMetrics()
		nodeMetrics.nodeUpUnixSeconds.SetToCurrentTime()
	})
}

func RegisterMetrics(mux *http.ServeMux) {
	logx.Info("MONITORING", "Registering prometheus metrics")
	mux.Handle("/metrics", promhttp.Handler())
}

func SetBlockHeight(blockHeight uint64) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.blockHeight.Set(float64(blockHeight))
}

func RecordAddBlock(duration time.Duration, sizeBytes int) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.addBlockDuration.Observe(duration.Seconds())
	nodeMetrics.blockSizeBytes.Observe(float64(sizeBytes))
}

func IncreaseAddBlockFailures() {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.addBlockFailures.Inc()
}

func RecordBlockValidation(valid bool) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.validationRuns.With(prometheus.Labels{
		"scope":  string(ScopeBlock),
		"result": resultLabel(valid),
	}).Inc()
}

func RecordChainValidation(duration time.Duration, invalidCount int) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.validationRuns.With(prometheus.Labels{
		"scope":  string(ScopeChain),
		"result": resultLabel(invalidCount == 0),
	}).Inc()
	nodeMetrics.invalidBlocksFound.Set(float64(invalidCount))
	nodeMetrics.chainValidationTime.Observe(duration.Seconds())
}

func IncreasePanicCount() {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.panicCount.Inc()
}

func resultLabel(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}
