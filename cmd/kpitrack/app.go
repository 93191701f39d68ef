package main

import (
	"context"
	"fmt"

	"github.com/arnold/kpitrack-api/internal/config"
	"github.com/arnold/kpitrack-api/internal/database"
	"github.com/arnold/kpitrack-api/internal/export"
	"github.com/arnold/kpitrack-api/internal/handlers"
	"github.com/arnold/kpitrack-api/internal/lock"
	"github.com/arnold/kpitrack-api/internal/repositories"
	"github.com/arnold/kpitrack-api/internal/services"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// app is everything the commands share once config is loaded.
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	db        *gorm.DB
	handler   *handlers.Handler
	summaries *services.SummaryService
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.RedisAddress != "" {
		redisLocker, err := lock.NewRedisLocker(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.LockTTL)
		if err != nil {
			return nil, err
		}
		locker = redisLocker
		logger.WithField("address", cfg.RedisAddress).Info("Using Redis locks")
	}

	users := repositories.NewUserRepository(db)
	tasks := repositories.NewTaskRepository(db)
	kpis := repositories.NewKPIRepository(db)
	logs := repositories.NewActivityLogRepository(db)
	summaryRepo := repositories.NewSummaryRepository(db)

	loc := cfg.Location()
	aggregator := services.NewAggregator(tasks, kpis, locker, logger, loc)
	formatter := services.NewFormatter(aggregator)
	builder := services.NewReportBuilder(users, tasks, kpis, logs, aggregator, loc)
	push := services.NewPushService(ctx, cfg.FCMServiceAccount, users, logger)

	summaries := services.NewSummaryService(services.SummaryDeps{
		Summaries: summaryRepo,
		Users:     users,
		KPIs:      kpis,
		Builder:   builder,
		Formatter: formatter,
		Renderer:  export.ExcelRenderer{},
		Locker:    locker,
		Notifier:  push,
		Logger:    logger,
		Location:  loc,
	})

	h := handlers.New(handlers.Deps{
		Config:       cfg,
		Users:        users,
		Tasks:        tasks,
		KPIs:         kpis,
		ActivityLogs: logs,
		Aggregator:   aggregator,
		Formatter:    formatter,
		Summaries:    summaries,
		Logger:       logger,
	})

	return &app{cfg: cfg, logger: logger, db: db, handler: h, summaries: summaries}, nil
}
