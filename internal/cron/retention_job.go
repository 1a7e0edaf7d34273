package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/subtrackr/subtrackr-backend/pkg/logger"
)

// defaultRetentionDays is how long reminders and notification records are
// kept before the sweep removes them.
const defaultRetentionDays = 60

type retentionSweeper interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJobParams configure the retention sweep.
type RetentionJobParams struct {
	Logger        *logger.Logger
	Reminders     retentionSweeper
	Notifications retentionSweeper
	RetentionDays int
	Now           func() time.Time
}

// NewRetentionJob builds the job that deletes reminders and notifications
// older than the retention window.
func NewRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reminders == nil {
		return nil, fmt.Errorf("reminders sweeper required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications sweeper required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &retentionJob{
		logg:          params.Logger,
		reminders:     params.Reminders,
		notifications: params.Notifications,
		retention:     retention,
		now:           now,
	}, nil
}

type retentionJob struct {
	logg          *logger.Logger
	reminders     retentionSweeper
	notifications retentionSweeper
	retention     int
	now           func() time.Time
}

func (j *retentionJob) Name() string { return "retention-sweep" }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)

	remindersDeleted, err := j.reminders.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep reminders: %w", err)
	}
	notificationsDeleted, err := j.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep notifications: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":                cutoff,
		"retention_days":        j.retention,
		"reminders_deleted":     remindersDeleted,
		"notifications_deleted": notificationsDeleted,
	})
	j.logg.Info(logCtx, "retention sweep complete")
	return nil
}
