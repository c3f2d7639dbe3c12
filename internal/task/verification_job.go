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

// VerificationJob triggers the entity re-verification sync.
type VerificationJob struct {
	sync     *events.VerificationSync
	interval time.Duration
	running  atomic.Bool
}

func NewVerificationJob(sync *events.VerificationSync, cfg *config.Config) *VerificationJob {
	return &VerificationJob{
		sync:     sync,
		interval: time.Duration(cfg.Sync.VerificationInterval) * time.Second,
	}
}

func (j *VerificationJob) GetName() string {
	return "entity_verification"
}

func (j *VerificationJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *VerificationJob) Execute() {
	if !j.running.CompareAndSwap(false, true) {
		logger.Warn("Verification sync still in progress, skipping trigger")
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	err := j.sync.RunOnce(context.Background())
	metrics.SyncDuration.WithLabelValues(j.GetName()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SyncRuns.WithLabelValues(j.GetName(), "error").Inc()
		logger.Error("Verification sync failed: %v", err)
		return
	}
	metrics.SyncRuns.WithLabelValues(j.GetName(), "ok").Inc()
}
