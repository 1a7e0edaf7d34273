package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/logger"
)

// maxSubscriptionsPerCycle bounds how many subscriptions one daily cycle
// evaluates.
const maxSubscriptionsPerCycle = 5000

type dueSubscriptionSource interface {
	ListActiveWithRenewal(ctx context.Context, limit int) ([]models.Subscription, error)
}

type dueReminderEvaluator interface {
	DueForSubscription(ctx context.Context, sub *models.Subscription, today time.Time) (*models.Reminder, error)
	MarkSent(ctx context.Context, reminderID uuid.UUID) error
}

type reminderDispatcher interface {
	DispatchReminder(ctx context.Context, sub *models.Subscription, reminder *models.Reminder) error
}

// ReminderDueJobParams configure the daily due-reminder check.
type ReminderDueJobParams struct {
	Logger        *logger.Logger
	Subscriptions dueSubscriptionSource
	Reminders     dueReminderEvaluator
	Dispatcher    reminderDispatcher
	Now           func() time.Time
}

// NewReminderDueJob builds the job that notifies tenants of due reminders.
func NewReminderDueJob(params ReminderDueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription source required")
	}
	if params.Reminders == nil {
		return nil, fmt.Errorf("reminder evaluator required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &reminderDueJob{
		logg:       params.Logger,
		subs:       params.Subscriptions,
		reminders:  params.Reminders,
		dispatcher: params.Dispatcher,
		now:        now,
	}, nil
}

type reminderDueJob struct {
	logg       *logger.Logger
	subs       dueSubscriptionSource
	reminders  dueReminderEvaluator
	dispatcher reminderDispatcher
	now        func() time.Time
}

func (j *reminderDueJob) Name() string { return "reminder-due" }

// Run evaluates every active subscription against today and dispatches a
// notification for each unsent due reminder. Marking the reminder sent after
// dispatch keeps the job idempotent within a day.
func (j *reminderDueJob) Run(ctx context.Context) error {
	today := j.now().UTC()

	subs, err := j.subs.ListActiveWithRenewal(ctx, maxSubscriptionsPerCycle)
	if err != nil {
		return fmt.Errorf("list active subscriptions: %w", err)
	}

	var dispatched, skipped int
	var errs error
	for i := range subs {
		sub := subs[i]
		due, err := j.reminders.DueForSubscription(ctx, &sub, today)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
			continue
		}
		if due == nil || due.Sent {
			skipped++
			continue
		}

		if err := j.dispatcher.DispatchReminder(ctx, &sub, due); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dispatch %s: %w", sub.ID, err))
			continue
		}
		if err := j.reminders.MarkSent(ctx, due.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark sent %s: %w", due.ID, err))
			continue
		}
		dispatched++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"subscriptions": len(subs),
		"dispatched":    dispatched,
		"skipped":       skipped,
	})
	j.logg.Info(logCtx, "due reminder check complete")
	return errs
}
