package subscriptions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/subtrackr/subtrackr-backend/internal/reminders"
	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/enums"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
	"github.com/subtrackr/subtrackr-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines tenant-scoped subscription operations. Every write that
// touches the renewal schedule regenerates the full reminder set in the same
// transaction.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Subscription, error)
	Update(ctx context.Context, input UpdateInput) (*models.Subscription, error)
	Get(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Delete(ctx context.Context, tenantID, subscriptionID uuid.UUID) error
}

type service struct {
	repo      Repository
	reminders reminders.Repository
	tx        txRunner
}

// ServiceParams wires subscription service dependencies.
type ServiceParams struct {
	Repo      Repository
	Reminders reminders.Repository
	Tx        txRunner
}

// CreateInput carries a new subscription. ReminderDays is a pointer so an
// explicit zero survives decoding; nil falls back to the default lead.
type CreateInput struct {
	TenantID       uuid.UUID
	Name           string
	Vendor         string
	Category       string
	Cost           decimal.Decimal
	Currency       string
	BillingCycle   string
	RenewalDate    *time.Time
	ReminderPolicy string
	ReminderDays   *int
	Notes          string
}

// UpdateInput mirrors CreateInput for an existing subscription.
type UpdateInput struct {
	TenantID       uuid.UUID
	SubscriptionID uuid.UUID
	Name           string
	Vendor         string
	Category       string
	Cost           decimal.Decimal
	Currency       string
	BillingCycle   string
	RenewalDate    *time.Time
	ReminderPolicy string
	ReminderDays   *int
	Status         string
	Notes          string
}

// ListParams configures cursor pagination for subscription lists.
type ListParams struct {
	TenantID uuid.UUID
	Limit    int
	Cursor   string
	Status   string
}

// ListResult wraps a page of subscriptions and the next-page cursor.
type ListResult struct {
	Items  []models.Subscription `json:"items"`
	Cursor string                `json:"cursor"`
}

const defaultReminderDays = 7

// NewService validates dependencies and returns a subscriptions service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscriptions repository required")
	}
	if params.Reminders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reminders repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: params.Repo, reminders: params.Reminders, tx: params.Tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Subscription, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription name required")
	}

	sub := &models.Subscription{
		TenantID:       input.TenantID,
		Name:           strings.TrimSpace(input.Name),
		Vendor:         strings.TrimSpace(input.Vendor),
		Category:       strings.TrimSpace(input.Category),
		Cost:           input.Cost,
		Currency:       normalizeCurrency(input.Currency),
		BillingCycle:   enums.NormalizeBillingCycle(input.BillingCycle),
		RenewalDate:    normalizeRenewalDate(input.RenewalDate),
		ReminderPolicy: enums.NormalizeReminderPolicy(input.ReminderPolicy),
		ReminderDays:   normalizeReminderDays(input.ReminderDays),
		Status:         enums.SubscriptionStatusActive,
		Notes:          input.Notes,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}
		return s.regenerate(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Subscription, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if input.SubscriptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription name required")
	}

	var updated *models.Subscription
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sub, err := repo.FindByID(ctx, input.TenantID, input.SubscriptionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}

		sub.Name = strings.TrimSpace(input.Name)
		sub.Vendor = strings.TrimSpace(input.Vendor)
		sub.Category = strings.TrimSpace(input.Category)
		sub.Cost = input.Cost
		sub.Currency = normalizeCurrency(input.Currency)
		sub.BillingCycle = enums.NormalizeBillingCycle(input.BillingCycle)
		sub.RenewalDate = normalizeRenewalDate(input.RenewalDate)
		sub.ReminderPolicy = enums.NormalizeReminderPolicy(input.ReminderPolicy)
		sub.ReminderDays = normalizeReminderDays(input.ReminderDays)
		sub.Notes = input.Notes
		if input.Status != "" {
			status, err := enums.ParseSubscriptionStatus(input.Status)
			if err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription status")
			}
			sub.Status = status
		}

		if err := repo.Update(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
		}
		if err := s.regenerate(ctx, tx, sub); err != nil {
			return err
		}
		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if subscriptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}

	sub, err := s.repo.FindByID(ctx, tenantID, subscriptionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return sub, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	query := listSubscriptionsParams{
		TenantID: params.TenantID,
		Limit:    params.Limit,
	}
	if params.Status != "" {
		status, err := enums.ParseSubscriptionStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		query.Status = status
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// Delete soft-deletes a subscription by marking it cancelled and dropping its
// reminder schedule.
func (s *service) Delete(ctx context.Context, tenantID, subscriptionID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if subscriptionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).UpdateStatus(ctx, tenantID, subscriptionID, enums.SubscriptionStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		if err := s.reminders.WithTx(tx).DeleteBySubscription(ctx, subscriptionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reminders")
		}
		return nil
	})
}

// regenerate replaces the subscription's reminder set wholesale. Delete then
// bulk insert, never a diff.
func (s *service) regenerate(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	repo := s.reminders.WithTx(tx)
	if err := repo.DeleteBySubscription(ctx, sub.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear reminder schedule")
	}
	if err := repo.BulkInsert(ctx, reminders.BuildReminders(sub)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert reminder schedule")
	}
	return nil
}

func normalizeReminderDays(value *int) int {
	if value == nil || *value < 0 {
		return defaultReminderDays
	}
	return *value
}

func normalizeRenewalDate(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	year, month, day := value.UTC().Date()
	normalized := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &normalized
}

func normalizeCurrency(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return "USD"
	}
	return value
}
