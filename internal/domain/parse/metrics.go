package parse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the parse pipeline.
type Metrics struct {
	ParsesTotal           *prometheus.CounterVec
	ParseDuration         prometheus.Histogram
	TransactionsExtracted prometheus.Counter
	RowsDropped           prometheus.Counter
	QueueDepth            prometheus.Gauge
}

// NewMetrics registers the parse metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ParsesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docparse",
			Subsystem: "parse",
			Name:      "runs_total",
			Help:      "Parse runs by terminal status.",
		}, []string{"status"}),
		ParseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docparse",
			Subsystem: "parse",
			Name:      "duration_seconds",
			Help:      "Wall time of one document parse run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		TransactionsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "docparse",
			Subsystem: "parse",
			Name:      "transactions_extracted_total",
			Help:      "Transactions persisted across all parse runs.",
		}),
		RowsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "docparse",
			Subsystem: "parse",
			Name:      "rows_dropped_total",
			Help:      "Candidate rows discarded for unresolvable dates or amounts.",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "docparse",
			Subsystem: "parse",
			Name:      "queue_depth",
			Help:      "Documents waiting for a parse worker.",
		}),
	}
}
