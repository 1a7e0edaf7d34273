package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/enums"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
)

type fakeReminderRepo struct {
	rows       []models.Reminder
	marked     []uuid.UUID
	sweptUntil time.Time
}

func (f *fakeReminderRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeReminderRepo) DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.SubscriptionID != subscriptionID {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeReminderRepo) BulkInsert(ctx context.Context, reminders []models.Reminder) error {
	f.rows = append(f.rows, reminders...)
	return nil
}

func (f *fakeReminderRepo) ListBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]models.Reminder, error) {
	var out []models.Reminder
	for _, row := range f.rows {
		if row.TenantID == tenantID && row.SubscriptionID == subscriptionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) ListUpcoming(ctx context.Context, tenantID uuid.UUID, fromDate string, limit int) ([]models.Reminder, error) {
	var out []models.Reminder
	for _, row := range f.rows {
		if row.TenantID == tenantID && !row.Sent && row.ReminderDate >= fromDate {
			out = append(out, row)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) MarkSent(ctx context.Context, reminderID uuid.UUID) error {
	f.marked = append(f.marked, reminderID)
	return nil
}

func (f *fakeReminderRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.sweptUntil = cutoff
	return 3, nil
}

func newTestService(t *testing.T, repo Repository, now time.Time) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Now: func() time.Time { return now }})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeDependency, coded.Code())
}

func TestBuildRemindersStampsOwnershipAndStatus(t *testing.T) {
	renewal := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		RenewalDate:    &renewal,
		ReminderPolicy: enums.ReminderPolicyUntilRenewal,
		ReminderDays:   3,
		Status:         enums.SubscriptionStatusPaused,
	}

	rows := BuildReminders(sub)
	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.Equal(t, sub.TenantID, row.TenantID)
		assert.Equal(t, sub.ID, row.SubscriptionID)
		assert.Equal(t, enums.SubscriptionStatusPaused, row.Status)
		assert.Equal(t, "Daily", row.ReminderType)
	}
}

func TestBuildRemindersWithoutRenewalDate(t *testing.T) {
	sub := &models.Subscription{ID: uuid.New(), TenantID: uuid.New(), ReminderPolicy: enums.ReminderPolicyOneTime, ReminderDays: 7}
	assert.Nil(t, BuildReminders(sub))
}

func TestDueForSubscriptionResolvesAgainstStoredRows(t *testing.T) {
	tenantID := uuid.New()
	subID := uuid.New()
	renewal := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:             subID,
		TenantID:       tenantID,
		RenewalDate:    &renewal,
		ReminderPolicy: enums.ReminderPolicyTwoTimes,
		ReminderDays:   10,
	}

	repo := &fakeReminderRepo{rows: []models.Reminder{
		{ID: uuid.New(), TenantID: tenantID, SubscriptionID: subID, ReminderDate: "2025-03-21"},
		{ID: uuid.New(), TenantID: tenantID, SubscriptionID: subID, ReminderDate: "2025-03-26"},
	}}
	svc := newTestService(t, repo, time.Now())

	due, err := svc.DueForSubscription(context.Background(), sub, time.Date(2025, 3, 23, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, "2025-03-26", due.ReminderDate)
}

func TestDueForSubscriptionNothingDue(t *testing.T) {
	tenantID := uuid.New()
	subID := uuid.New()
	renewal := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:             subID,
		TenantID:       tenantID,
		RenewalDate:    &renewal,
		ReminderPolicy: enums.ReminderPolicyTwoTimes,
		ReminderDays:   10,
	}

	svc := newTestService(t, &fakeReminderRepo{}, time.Now())

	due, err := svc.DueForSubscription(context.Background(), sub, time.Date(2025, 3, 23, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, due)
}

func TestListUpcomingUsesInjectedClock(t *testing.T) {
	tenantID := uuid.New()
	repo := &fakeReminderRepo{rows: []models.Reminder{
		{ID: uuid.New(), TenantID: tenantID, SubscriptionID: uuid.New(), ReminderDate: "2025-03-19"},
		{ID: uuid.New(), TenantID: tenantID, SubscriptionID: uuid.New(), ReminderDate: "2025-03-20"},
		{ID: uuid.New(), TenantID: tenantID, SubscriptionID: uuid.New(), ReminderDate: "2025-03-21"},
	}}
	svc := newTestService(t, repo, time.Date(2025, 3, 20, 15, 4, 5, 0, time.UTC))

	rows, err := svc.ListUpcoming(context.Background(), tenantID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-03-20", rows[0].ReminderDate)
	assert.Equal(t, "2025-03-21", rows[1].ReminderDate)
}

func TestSweepOlderThanDelegatesCutoff(t *testing.T) {
	repo := &fakeReminderRepo{}
	svc := newTestService(t, repo, time.Now())

	cutoff := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	deleted, err := svc.SweepOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, cutoff, repo.sweptUntil)
}
