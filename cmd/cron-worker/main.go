package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/subtrackr/subtrackr-backend/internal/cron"
	"github.com/subtrackr/subtrackr-backend/internal/notifications"
	"github.com/subtrackr/subtrackr-backend/internal/reminders"
	"github.com/subtrackr/subtrackr-backend/internal/subscriptions"
	"github.com/subtrackr/subtrackr-backend/internal/users"
	"github.com/subtrackr/subtrackr-backend/pkg/config"
	"github.com/subtrackr/subtrackr-backend/pkg/db"
	"github.com/subtrackr/subtrackr-backend/pkg/logger"
	"github.com/subtrackr/subtrackr-backend/pkg/metrics"
	"github.com/subtrackr/subtrackr-backend/pkg/migrate"
	"github.com/subtrackr/subtrackr-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	subscriptionRepo := subscriptions.NewRepository(dbClient.DB())
	reminderRepo := reminders.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())
	userRepo := users.NewRepository(dbClient.DB())

	reminderService, err := reminders.NewService(reminders.ServiceParams{Repo: reminderRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminders service", err)
		os.Exit(1)
	}

	mailer := notifications.NewNoopMailer()
	if cfg.Sendgrid.APIKey != "" {
		mailer, err = notifications.NewSendgridMailer(cfg.Sendgrid)
		if err != nil {
			logg.Error(context.Background(), "failed to create mailer", err)
			os.Exit(1)
		}
	}

	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo:       notificationRepo,
		Mailer:     mailer,
		Recipients: userRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	dueJob, err := cron.NewReminderDueJob(cron.ReminderDueJobParams{
		Logger:        logg,
		Subscriptions: subscriptionRepo,
		Reminders:     reminderService,
		Dispatcher:    notificationService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminder due job", err)
		os.Exit(1)
	}

	rolloverJob, err := cron.NewRenewalRolloverJob(cron.RenewalRolloverJobParams{
		Logger:        logg,
		DB:            dbClient,
		Subscriptions: subscriptionRepo,
		Reminders:     reminderRepo,
		Notifications: notificationRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create renewal rollover job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Logger:        logg,
		Reminders:     reminderRepo,
		Notifications: notificationRepo,
		RetentionDays: cfg.Cron.ReminderRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(rolloverJob, dueJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
