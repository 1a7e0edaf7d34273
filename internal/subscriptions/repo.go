package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/enums"
	"github.com/subtrackr/subtrackr-backend/pkg/pagination"
)

// Repository exposes persistence helpers for subscriptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
	FindByID(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, params listSubscriptionsParams) ([]models.Subscription, *pagination.Cursor, error)
	UpdateStatus(ctx context.Context, tenantID, subscriptionID uuid.UUID, status enums.SubscriptionStatus) (int64, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Subscription, error)
	ListActiveRenewingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error)
	ListActiveWithRenewal(ctx context.Context, limit int) ([]models.Subscription, error)
	UpdateRenewalDate(ctx context.Context, subscriptionID uuid.UUID, renewalDate time.Time) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a subscriptions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listSubscriptionsParams struct {
	TenantID uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
	Status   enums.SubscriptionStatus
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repositoryImpl) Update(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", subscriptionID, tenantID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listSubscriptionsParams) ([]models.Subscription, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("tenant_id = ?", params.TenantID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	} else {
		query = query.Where("status <> ?", enums.SubscriptionStatusCancelled)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var subs []models.Subscription
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&subs).Error; err != nil {
		return nil, nil, err
	}

	if len(subs) > normalized {
		next := subs[normalized]
		subs = subs[:normalized]
		return subs, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return subs, nil, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, tenantID, subscriptionID uuid.UUID, status enums.SubscriptionStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND tenant_id = ?", subscriptionID, tenantID).
		UpdateColumn("status", status)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListByTenant returns every non-cancelled subscription for dashboard
// aggregation.
func (r *repositoryImpl) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status <> ?", tenantID, enums.SubscriptionStatusCancelled).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListActiveRenewingBefore returns active subscriptions across all tenants
// whose renewal date has already passed the cutoff. Used by the rollover job.
func (r *repositoryImpl) ListActiveRenewingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND renewal_date IS NOT NULL AND renewal_date < ?", enums.SubscriptionStatusActive, cutoff.UTC().Format("2006-01-02")).
		Order("renewal_date ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListActiveWithRenewal returns every active subscription that can produce
// reminders. Used by the daily due-check job.
func (r *repositoryImpl) ListActiveWithRenewal(ctx context.Context, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND renewal_date IS NOT NULL", enums.SubscriptionStatusActive).
		Order("created_at ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repositoryImpl) UpdateRenewalDate(ctx context.Context, subscriptionID uuid.UUID, renewalDate time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		UpdateColumn("renewal_date", renewalDate).Error
}
