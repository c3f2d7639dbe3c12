package task

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/nina-protocol/nina-indexer-sub000/internal/config"
	"github.com/nina-protocol/nina-indexer-sub000/internal/events"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
)

// Job is one scheduled sync. Each implementation owns its own in-progress
// guard so overlapping triggers are dropped, not queued.
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager registers and runs the periodic syncs.
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

func NewManager(coordinator *events.Coordinator, verification *events.VerificationSync,
	collector *events.CollectorSync, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		jobs: []Job{
			NewIngestionJob(coordinator, cfg),
			NewVerificationJob(verification, cfg),
			NewCollectorJob(collector, cfg),
		},
	}
}

// Start registers every job and starts the scheduler.
func Start(coordinator *events.Coordinator, verification *events.VerificationSync,
	collector *events.CollectorSync, cfg *config.Config) *Manager {
	manager := NewManager(coordinator, verification, collector, cfg)
	manager.RegisterJobs()
	manager.scheduler.Start()
	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs registers all syncs with the scheduler.
func (m *Manager) RegisterJobs() {
	for _, job := range m.jobs {
		_, err := m.scheduler.NewJob(
			job.GetSchedule(),
			gocron.NewTask(job.Execute),
			gocron.WithName(job.GetName()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			logger.Error("Failed to register job %s: %v", job.GetName(), err)
		}
	}
}

// Stop shuts the scheduler down.
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
