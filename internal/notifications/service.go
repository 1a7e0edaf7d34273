package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/enums"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
	"github.com/subtrackr/subtrackr-backend/pkg/pagination"
)

// recipientLister resolves which users of a tenant receive reminder email.
type recipientLister interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.User, error)
}

// Service defines notification list/read operations plus reminder dispatch.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, tenantID uuid.UUID) (int64, error)
	DispatchReminder(ctx context.Context, sub *models.Subscription, reminder *models.Reminder) error
	SweepOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type service struct {
	repo       Repository
	mailer     Mailer
	recipients recipientLister
	now        func() time.Time
}

// ServiceParams wires notification service dependencies.
type ServiceParams struct {
	Repo       Repository
	Mailer     Mailer
	Recipients recipientLister
	Now        func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	TenantID   uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService validates dependencies and returns a notifications service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if params.Mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mailer required")
	}
	if params.Recipients == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "recipient lister required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, mailer: params.Mailer, recipients: params.Recipients, now: now}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	query := listNotificationsParams{
		TenantID:   params.TenantID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, tenantID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if tenantID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	count, err := s.repo.MarkAllRead(ctx, tenantID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// DispatchReminder records an in-app notification for the due reminder and
// emails every user of the owning tenant. Email failures are returned so the
// caller can decide whether to mark the reminder sent.
func (s *service) DispatchReminder(ctx context.Context, sub *models.Subscription, reminder *models.Reminder) error {
	if sub == nil || reminder == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription and reminder required")
	}

	renewalDate := ""
	if sub.RenewalDate != nil {
		renewalDate = sub.RenewalDate.Format("2006-01-02")
	}

	notification := &models.Notification{
		TenantID:       sub.TenantID,
		SubscriptionID: &sub.ID,
		ReminderID:     &reminder.ID,
		Type:           enums.NotificationTypeRenewalReminder,
		Title:          fmt.Sprintf("%s renews soon", sub.Name),
		Message:        fmt.Sprintf("%s: %s renews on %s", reminder.ReminderType, sub.Name, renewalDate),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	users, err := s.recipients.ListByTenant(ctx, sub.TenantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve recipients")
	}

	for _, user := range users {
		email := ReminderEmail{
			ToEmail:          user.Email,
			ToName:           user.FullName,
			SubscriptionName: sub.Name,
			ReminderType:     reminder.ReminderType,
			RenewalDate:      renewalDate,
		}
		if err := s.mailer.SendReminderEmail(ctx, email); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send reminder email")
		}
	}
	return nil
}

// NotifyRenewalRolled records an in-app notification when the rollover job
// advances a renewal date.
func NotifyRenewalRolled(ctx context.Context, repo Repository, sub *models.Subscription) error {
	if sub == nil || sub.RenewalDate == nil {
		return nil
	}
	return repo.Create(ctx, &models.Notification{
		TenantID:       sub.TenantID,
		SubscriptionID: &sub.ID,
		Type:           enums.NotificationTypeRenewalRolled,
		Title:          fmt.Sprintf("%s renewed", sub.Name),
		Message:        fmt.Sprintf("%s rolled over; next renewal %s", sub.Name, sub.RenewalDate.Format("2006-01-02")),
	})
}

func (s *service) SweepOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sweep notifications")
	}
	return deleted, nil
}
