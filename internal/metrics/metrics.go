package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TransactionsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "nina_indexer_transactions_ingested_total", Help: "Transaction rows inserted, by event type"},
		[]string{"event_type"},
	)
	ProcessorDeferrals = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "nina_indexer_processor_deferrals_total", Help: "Transactions deferred because a referenced entity was missing"},
		[]string{"event_type"},
	)
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "nina_indexer_sync_runs_total", Help: "Sync passes by job and outcome"},
		[]string{"job", "status"},
	)
	SyncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "nina_indexer_sync_duration_seconds", Help: "Sync pass latency", Buckets: prometheus.DefBuckets},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(TransactionsIngested, ProcessorDeferrals, SyncRuns, SyncDuration)
}
