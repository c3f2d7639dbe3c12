package main

import (
	"github.com/gin-gonic/gin"
	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
	"github.com/nina-protocol/nina-indexer-sub000/internal/config"
	"github.com/nina-protocol/nina-indexer-sub000/internal/database"
	"github.com/nina-protocol/nina-indexer-sub000/internal/events"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"github.com/nina-protocol/nina-indexer-sub000/internal/metadata"
	"github.com/nina-protocol/nina-indexer-sub000/internal/router"
	"github.com/nina-protocol/nina-indexer-sub000/internal/task"
)

func main() {
	cfg := config.Load()

	setupLogger(cfg.Log)
	defer logger.Sync()

	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	client, err := chain.Init(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize chain client: %v", err)
	}

	fetcher := metadata.NewFetcher(cfg.Metadata)

	coordinator, err := events.NewCoordinator(db, client, fetcher, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize coordinator: %v", err)
	}
	verification := events.NewVerificationSync(client, fetcher,
		logic.NewReleaseLogic(db), logic.NewHubLogic(db))
	collector := events.NewCollectorSync(client, logic.NewReleaseLogic(db),
		cfg.Sync.CollectorWorkers)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.Setup(db, coordinator)

	manager := task.Start(coordinator, verification, collector, cfg)
	defer manager.Stop()

	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	level := logger.ParseLogLevel(cfg.Level)

	var (
		l   *logger.Logger
		err error
	)
	if cfg.Output == "file" {
		l, err = logger.NewWithFileRotation(level, cfg.File)
	} else {
		l, err = logger.New(level)
	}
	if err != nil {
		panic(err)
	}
	logger.SetDefaultLogger(l)
}
