package metrics

import (
	"sync"

	"github.com/ardanlabs/hashchain/foundation/blockchain/database"
	"github.com/prometheus/client_golang/prometheus"
)

// ChainSource is the behavior the chain collector needs to read from
// the node.
type ChainSource interface {
	RetrieveChainLength() uint64
	QueryMempoolLength() int
	ValidateChain() database.Report
}

// ChainCollector is a prometheus collector that reports the state of the
// chain and the mempool at scrape time. The chain only grows by appending
// blocks, so the validation report is reused until the length changes.
type ChainCollector struct {
	src        ChainSource
	mu         sync.Mutex
	checked    bool
	lastLength uint64
	report     database.Report
	length     *prometheus.Desc
	mined      *prometheus.Desc
	mempool    *prometheus.Desc
	valid      *prometheus.Desc
	violations *prometheus.Desc
}

// NewChainCollector constructs a collector for the specified source.
func NewChainCollector(src ChainSource) *ChainCollector {
	return &ChainCollector{
		src: src,
		length: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "length"),
			"Number of blocks in the chain including genesis.",
			nil, nil,
		),
		mined: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "mined_blocks_total"),
			"Number of blocks mined on top of genesis.",
			nil, nil,
		),
		mempool: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "mempool", "size"),
			"Number of transactions waiting to be mined.",
			nil, nil,
		),
		valid: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "valid"),
			"1 when every block passes validation, 0 otherwise.",
			nil, nil,
		),
		violations: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "violations"),
			"Number of validation violations found in the chain.",
			nil, nil,
		),
	}
}

// Describe implements the prometheus.Collector interface.
func (c *ChainCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.length
	ch <- c.mined
	ch <- c.mempool
	ch <- c.valid
	ch <- c.violations
}

// Collect implements the prometheus.Collector interface.
func (c *ChainCollector) Collect(ch chan<- prometheus.Metric) {
	length := c.src.RetrieveChainLength()

	var mined uint64
	if length > 0 {
		mined = length - 1
	}

	report := c.validation(length)

	var valid float64
	if report.Valid() {
		valid = 1
	}

	ch <- prometheus.MustNewConstMetric(c.length, prometheus.GaugeValue, float64(length))
	ch <- prometheus.MustNewConstMetric(c.mined, prometheus.CounterValue, float64(mined))
	ch <- prometheus.MustNewConstMetric(c.mempool, prometheus.GaugeValue, float64(c.src.QueryMempoolLength()))
	ch <- prometheus.MustNewConstMetric(c.valid, prometheus.GaugeValue, valid)
	ch <- prometheus.MustNewConstMetric(c.violations, prometheus.GaugeValue, float64(len(report.Violations)))
}

// validation returns the report for the chain at the specified length,
// walking the chain only when it has changed since the last scrape.
func (c *ChainCollector) validation(length uint64) database.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.checked || length != c.lastLength {
		c.report = c.src.ValidateChain()
		c.lastLength = length
		c.checked = true
	}

	return c.report
}
