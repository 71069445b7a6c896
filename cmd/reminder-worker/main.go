package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medtrack/medtrack-api/internal/repository"
	"github.com/medtrack/medtrack-api/internal/service"
	"github.com/medtrack/medtrack-api/pkg/cache"
	"github.com/medtrack/medtrack-api/pkg/config"
	"github.com/medtrack/medtrack-api/pkg/database"
	"github.com/medtrack/medtrack-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if !cfg.Reminders.Enabled {
		logr.Info("reminders disabled, exiting")
		return
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	patientRepo := repository.NewPatientRepository(db)
	medicationRepo := repository.NewMedicationRepository(db)
	versionRepo := repository.NewScheduleVersionRepository(db)
	reminderRepo := repository.NewReminderRepository(redisClient, logr, cfg.Reminders.DedupTTL)

	var sender service.Sender
	if cfg.Reminders.WebhookURL != "" {
		sender = service.NewWebhookSender(cfg.Reminders.WebhookURL, logr)
	} else {
		sender = service.NewLogSender(logr)
	}

	metricsSvc := service.NewMetricsService()
	reminderSvc := service.NewReminderService(
		patientRepo, medicationRepo, versionRepo, reminderRepo,
		sender, metricsSvc, cfg.Reminders, cfg.Schedule.NotificationLead, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reminderSvc.Start(ctx)

	interval := cfg.Reminders.PollInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	logr.Info("reminder worker started",
		zap.Duration("poll_interval", interval),
		zap.Duration("window", cfg.Reminders.Window))

	if err := reminderSvc.Poll(ctx); err != nil {
		logr.Warn("reminder poll failed", zap.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if err := reminderSvc.Poll(ctx); err != nil {
				logr.Warn("reminder poll failed", zap.Error(err))
			}
		case sig := <-stop:
			logr.Info("shutting down", zap.String("signal", sig.String()))
			cancel()
			reminderSvc.Stop()
			return
		}
	}
}
