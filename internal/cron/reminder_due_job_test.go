package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/logger"
)

type fakeDueSource struct {
	subs []models.Subscription
}

func (f *fakeDueSource) ListActiveWithRenewal(_ context.Context, _ int) ([]models.Subscription, error) {
	return f.subs, nil
}

type fakeDueEvaluator struct {
	due  map[uuid.UUID]*models.Reminder
	errs map[uuid.UUID]error
	sent []uuid.UUID
}

func (f *fakeDueEvaluator) DueForSubscription(_ context.Context, sub *models.Subscription, _ time.Time) (*models.Reminder, error) {
	if err, ok := f.errs[sub.ID]; ok {
		return nil, err
	}
	return f.due[sub.ID], nil
}

func (f *fakeDueEvaluator) MarkSent(_ context.Context, reminderID uuid.UUID) error {
	f.sent = append(f.sent, reminderID)
	return nil
}

type fakeDispatcher struct {
	err        error
	dispatched []uuid.UUID
}

func (f *fakeDispatcher) DispatchReminder(_ context.Context, _ *models.Subscription, reminder *models.Reminder) error {
	if f.err != nil {
		return f.err
	}
	f.dispatched = append(f.dispatched, reminder.ID)
	return nil
}

func newDueJob(t *testing.T, source *fakeDueSource, evaluator *fakeDueEvaluator, dispatcher *fakeDispatcher) Job {
	t.Helper()
	job, err := NewReminderDueJob(ReminderDueJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "cron-test"}),
		Subscriptions: source,
		Reminders:     evaluator,
		Dispatcher:    dispatcher,
		Now:           func() time.Time { return time.Date(2025, 3, 24, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return job
}

func TestReminderDueJobDispatchesAndMarksSent(t *testing.T) {
	sub := models.Subscription{ID: uuid.New(), TenantID: uuid.New(), Name: "Figma"}
	due := &models.Reminder{ID: uuid.New(), SubscriptionID: sub.ID, ReminderDate: "2025-03-24"}

	source := &fakeDueSource{subs: []models.Subscription{sub}}
	evaluator := &fakeDueEvaluator{due: map[uuid.UUID]*models.Reminder{sub.ID: due}}
	dispatcher := &fakeDispatcher{}
	job := newDueJob(t, source, evaluator, dispatcher)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []uuid.UUID{due.ID}, dispatcher.dispatched)
	assert.Equal(t, []uuid.UUID{due.ID}, evaluator.sent)
}

func TestReminderDueJobSkipsAlreadySentReminders(t *testing.T) {
	sub := models.Subscription{ID: uuid.New(), Name: "Figma"}
	due := &models.Reminder{ID: uuid.New(), SubscriptionID: sub.ID, Sent: true}

	source := &fakeDueSource{subs: []models.Subscription{sub}}
	evaluator := &fakeDueEvaluator{due: map[uuid.UUID]*models.Reminder{sub.ID: due}}
	dispatcher := &fakeDispatcher{}
	job := newDueJob(t, source, evaluator, dispatcher)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, dispatcher.dispatched)
	assert.Empty(t, evaluator.sent)
}

func TestReminderDueJobSkipsSubscriptionsWithNothingDue(t *testing.T) {
	sub := models.Subscription{ID: uuid.New(), Name: "Notion"}
	source := &fakeDueSource{subs: []models.Subscription{sub}}
	evaluator := &fakeDueEvaluator{}
	dispatcher := &fakeDispatcher{}
	job := newDueJob(t, source, evaluator, dispatcher)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, dispatcher.dispatched)
}

func TestReminderDueJobContinuesPastFailures(t *testing.T) {
	broken := models.Subscription{ID: uuid.New(), Name: "Broken"}
	healthy := models.Subscription{ID: uuid.New(), Name: "Healthy"}
	due := &models.Reminder{ID: uuid.New(), SubscriptionID: healthy.ID}

	source := &fakeDueSource{subs: []models.Subscription{broken, healthy}}
	evaluator := &fakeDueEvaluator{
		due:  map[uuid.UUID]*models.Reminder{healthy.ID: due},
		errs: map[uuid.UUID]error{broken.ID: errors.New("boom")},
	}
	dispatcher := &fakeDispatcher{}
	job := newDueJob(t, source, evaluator, dispatcher)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []uuid.UUID{due.ID}, dispatcher.dispatched)
	assert.Equal(t, []uuid.UUID{due.ID}, evaluator.sent)
}

func TestReminderDueJobDoesNotMarkSentWhenDispatchFails(t *testing.T) {
	sub := models.Subscription{ID: uuid.New(), Name: "Figma"}
	due := &models.Reminder{ID: uuid.New(), SubscriptionID: sub.ID}

	source := &fakeDueSource{subs: []models.Subscription{sub}}
	evaluator := &fakeDueEvaluator{due: map[uuid.UUID]*models.Reminder{sub.ID: due}}
	dispatcher := &fakeDispatcher{err: errors.New("smtp down")}
	job := newDueJob(t, source, evaluator, dispatcher)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, evaluator.sent)
}
