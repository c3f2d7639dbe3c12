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

// CollectorJob triggers the slow holdings re-check sync.
type CollectorJob struct {
	sync     *events.CollectorSync
	interval time.Duration
	running  atomic.Bool
}

func NewCollectorJob(sync *events.CollectorSync, cfg *config.Config) *CollectorJob {
	return &CollectorJob{
		sync:     sync,
		interval: time.Duration(cfg.Sync.CollectorInterval) * time.Second,
	}
}

func (j *CollectorJob) GetName() string {
	return "collector_refresh"
}

func (j *CollectorJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *CollectorJob) Execute() {
	if !j.running.CompareAndSwap(false, true) {
		logger.Warn("Collector sync still in progress, skipping trigger")
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	err := j.sync.RunOnce(context.Background())
	metrics.SyncDuration.WithLabelValues(j.GetName()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SyncRuns.WithLabelValues(j.GetName(), "error").Inc()
		logger.Error("Collector sync failed: %v", err)
		return
	}
	metrics.SyncRuns.WithLabelValues(j.GetName(), "ok").Inc()
}
