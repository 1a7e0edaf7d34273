package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/subtrackr/subtrackr-backend/internal/notifications"
	"github.com/subtrackr/subtrackr-backend/internal/reminders"
	"github.com/subtrackr/subtrackr-backend/internal/subscriptions"
	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RenewalRolloverJobParams configure the renewal advancement job.
type RenewalRolloverJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Subscriptions subscriptions.Repository
	Reminders     reminders.Repository
	Notifications notifications.Repository
	Now           func() time.Time
}

// NewRenewalRolloverJob builds the job that advances lapsed renewal dates by
// one billing cycle and rebuilds the reminder schedule.
func NewRenewalRolloverJob(params RenewalRolloverJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Reminders == nil {
		return nil, fmt.Errorf("reminders repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &renewalRolloverJob{
		logg:          params.Logger,
		db:            params.DB,
		subs:          params.Subscriptions,
		reminders:     params.Reminders,
		notifications: params.Notifications,
		now:           now,
	}, nil
}

type renewalRolloverJob struct {
	logg          *logger.Logger
	db            txRunner
	subs          subscriptions.Repository
	reminders     reminders.Repository
	notifications notifications.Repository
	now           func() time.Time
}

func (j *renewalRolloverJob) Name() string { return "renewal-rollover" }

func (j *renewalRolloverJob) Run(ctx context.Context) error {
	today := dateOnly(j.now())

	subs, err := j.subs.ListActiveRenewingBefore(ctx, today, maxSubscriptionsPerCycle)
	if err != nil {
		return fmt.Errorf("list lapsed subscriptions: %w", err)
	}

	var rolled int
	var errs error
	for i := range subs {
		sub := subs[i]
		if err := j.rollOne(ctx, &sub, today); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rollover %s: %w", sub.ID, err))
			continue
		}
		rolled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"lapsed": len(subs),
		"rolled": rolled,
	})
	j.logg.Info(logCtx, "renewal rollover complete")
	return errs
}

func (j *renewalRolloverJob) rollOne(ctx context.Context, sub *models.Subscription, today time.Time) error {
	if sub.RenewalDate == nil {
		return nil
	}

	// A subscription that lapsed more than one cycle ago is caught up in a
	// single pass so the next renewal is never in the past.
	next := dateOnly(*sub.RenewalDate)
	for next.Before(today) {
		next = sub.BillingCycle.Advance(next)
	}
	sub.RenewalDate = &next

	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := j.subs.WithTx(tx).UpdateRenewalDate(ctx, sub.ID, next); err != nil {
			return fmt.Errorf("update renewal date: %w", err)
		}
		reminderRepo := j.reminders.WithTx(tx)
		if err := reminderRepo.DeleteBySubscription(ctx, sub.ID); err != nil {
			return fmt.Errorf("clear reminder schedule: %w", err)
		}
		if err := reminderRepo.BulkInsert(ctx, reminders.BuildReminders(sub)); err != nil {
			return fmt.Errorf("insert reminder schedule: %w", err)
		}
		if err := notifications.NotifyRenewalRolled(ctx, j.notifications.WithTx(tx), sub); err != nil {
			return fmt.Errorf("record rollover notification: %w", err)
		}
		return nil
	})
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
