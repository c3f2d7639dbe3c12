package task

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/nina-protocol/nina-indexer-sub000/internal/config"
	"github.com/nina-protocol/nina-indexer-sub000/internal/events"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
	"github.com/nina-protocol/nina-indexer-sub000/internal/metrics"
)

// IngestionJob triggers the main transaction sync pass.
type IngestionJob struct {
	coordinator *events.Coordinator
	interval    time.Duration
	running     atomic.Bool
}

func NewIngestionJob(coordinator *events.Coordinator, cfg *config.Config) *IngestionJob {
	return &IngestionJob{
		coordinator: coordinator,
		interval:    time.Duration(cfg.Sync.Interval) * time.Second,
	}
}

func (j *IngestionJob) GetName() string {
	return "transaction_ingestion"
}

func (j *IngestionJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute runs one sync pass. A trigger firing while a pass is still
// running returns immediately instead of queuing.
func (j *IngestionJob) Execute() {
	if !j.running.CompareAndSwap(false, true) {
		logger.Warn("Ingestion sync still in progress, skipping trigger")
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	inserted, err := j.coordinator.RunOnce(context.Background())
	metrics.SyncDuration.WithLabelValues(j.GetName()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SyncRuns.WithLabelValues(j.GetName(), "error").Inc()
		logger.Error("Ingestion sync failed: %v", err)
		return
	}

	metrics.SyncRuns.WithLabelValues(j.GetName(), "ok").Inc()
	if inserted > 0 {
		logger.Info("Ingestion sync inserted %d transactions in %s", inserted, time.Since(start))
	}
}
