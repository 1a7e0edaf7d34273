package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
)

// Service exposes reminder schedule reads and due-reminder evaluation. Writes
// that must ride a subscription transaction go through the Repository's
// WithTx handle instead.
type Service interface {
	ListForSubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]models.Reminder, error)
	ListUpcoming(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Reminder, error)
	DueForSubscription(ctx context.Context, sub *models.Subscription, today time.Time) (*models.Reminder, error)
	MarkSent(ctx context.Context, reminderID uuid.UUID) error
	SweepOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ServiceParams wires reminder service dependencies.
type ServiceParams struct {
	Repo Repository
	Now  func() time.Time
}

// NewService validates dependencies and returns a reminders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reminders repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, now: now}, nil
}

// BuildReminders maps a subscription's derived schedule onto persistable
// reminder rows. The subscription's status is stamped onto every row at
// generation time.
func BuildReminders(sub *models.Subscription) []models.Reminder {
	entries := BuildSchedule(sub.RenewalDate, sub.ReminderPolicy, sub.ReminderDays)
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.Reminder, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, models.Reminder{
			TenantID:       sub.TenantID,
			SubscriptionID: sub.ID,
			ReminderType:   entry.Type,
			ReminderDate:   entry.Date,
			Status:         sub.Status,
		})
	}
	return rows
}

func (s *service) ListForSubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]models.Reminder, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if subscriptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}

	rows, err := s.repo.ListBySubscription(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reminders")
	}
	return rows, nil
}

func (s *service) ListUpcoming(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Reminder, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	today := dateOnly(s.now()).Format(DateLayout)
	rows, err := s.repo.ListUpcoming(ctx, tenantID, today, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list upcoming reminders")
	}
	return rows, nil
}

// DueForSubscription loads the stored candidates and resolves today's due
// reminder. A nil result with a nil error means nothing is due.
func (s *service) DueForSubscription(ctx context.Context, sub *models.Subscription, today time.Time) (*models.Reminder, error) {
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription required")
	}

	candidates, err := s.repo.ListBySubscription(ctx, sub.TenantID, sub.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reminder candidates")
	}

	return SelectDue(sub.RenewalDate, sub.ReminderPolicy, sub.ReminderDays, today, candidates), nil
}

func (s *service) MarkSent(ctx context.Context, reminderID uuid.UUID) error {
	if reminderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reminder id required")
	}
	if err := s.repo.MarkSent(ctx, reminderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reminder sent")
	}
	return nil
}

func (s *service) SweepOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sweep expired reminders")
	}
	return deleted, nil
}
