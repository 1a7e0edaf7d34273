package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/enums"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
	"github.com/subtrackr/subtrackr-backend/pkg/pagination"
)

type fakeNotificationRepo struct {
	created []models.Notification
	readIDs []uuid.UUID
	found   bool
}

func (f *fakeNotificationRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotificationRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	return f.created, nil, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	f.readIDs = append(f.readIDs, notificationID)
	return notificationMarkResult{Updated: f.found, Found: f.found}, nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, tenantID uuid.UUID, now time.Time) (int64, error) {
	return int64(len(f.created)), nil
}

func (f *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 2, nil
}

type fakeMailer struct {
	sent []ReminderEmail
	err  error
}

func (f *fakeMailer) SendReminderEmail(ctx context.Context, input ReminderEmail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, input)
	return nil
}

type fakeRecipients struct {
	users []models.User
}

func (f *fakeRecipients) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.User, error) {
	return f.users, nil
}

func newNotificationsService(t *testing.T, repo *fakeNotificationRepo, mailer *fakeMailer, recipients *fakeRecipients) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Mailer: mailer, Recipients: recipients})
	require.NoError(t, err)
	return svc
}

func dueSubscription() (*models.Subscription, *models.Reminder) {
	renewal := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		Name:        "Figma",
		RenewalDate: &renewal,
	}
	reminder := &models.Reminder{
		ID:             uuid.New(),
		TenantID:       sub.TenantID,
		SubscriptionID: sub.ID,
		ReminderType:   "Before 7 days",
		ReminderDate:   "2025-03-24",
	}
	return sub, reminder
}

func TestDispatchReminderCreatesNotificationAndEmailsTenantUsers(t *testing.T) {
	repo := &fakeNotificationRepo{}
	mailer := &fakeMailer{}
	recipients := &fakeRecipients{users: []models.User{
		{Email: "owner@acme.test", FullName: "Owner"},
		{Email: "member@acme.test", FullName: "Member"},
	}}
	svc := newNotificationsService(t, repo, mailer, recipients)

	sub, reminder := dueSubscription()
	require.NoError(t, svc.DispatchReminder(context.Background(), sub, reminder))

	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, sub.TenantID, created.TenantID)
	assert.Equal(t, enums.NotificationTypeRenewalReminder, created.Type)
	require.NotNil(t, created.ReminderID)
	assert.Equal(t, reminder.ID, *created.ReminderID)
	assert.Contains(t, created.Message, "2025-03-31")

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "owner@acme.test", mailer.sent[0].ToEmail)
	assert.Equal(t, "Figma", mailer.sent[0].SubscriptionName)
	assert.Equal(t, "Before 7 days", mailer.sent[0].ReminderType)
}

func TestDispatchReminderSurfacesMailerFailure(t *testing.T) {
	repo := &fakeNotificationRepo{}
	mailer := &fakeMailer{err: errors.New("sendgrid down")}
	recipients := &fakeRecipients{users: []models.User{{Email: "owner@acme.test"}}}
	svc := newNotificationsService(t, repo, mailer, recipients)

	sub, reminder := dueSubscription()
	err := svc.DispatchReminder(context.Background(), sub, reminder)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeDependency, coded.Code())
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &fakeNotificationRepo{found: false}
	svc := newNotificationsService(t, repo, &fakeMailer{}, &fakeRecipients{})

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestMarkReadValidatesIDs(t *testing.T) {
	svc := newNotificationsService(t, &fakeNotificationRepo{found: true}, &fakeMailer{}, &fakeRecipients{})

	err := svc.MarkRead(context.Background(), uuid.Nil, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestNotifyRenewalRolled(t *testing.T) {
	repo := &fakeNotificationRepo{}
	renewal := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{ID: uuid.New(), TenantID: uuid.New(), Name: "Figma", RenewalDate: &renewal}

	require.NoError(t, NotifyRenewalRolled(context.Background(), repo, sub))
	require.Len(t, repo.created, 1)
	assert.Equal(t, enums.NotificationTypeRenewalRolled, repo.created[0].Type)
	assert.Contains(t, repo.created[0].Message, "2025-04-30")
}
