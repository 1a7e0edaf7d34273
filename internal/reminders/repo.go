package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
)

// Repository exposes persistence helpers for reminder rows. Reminder sets are
// always replaced wholesale, never patched row by row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) error
	BulkInsert(ctx context.Context, reminders []models.Reminder) error
	ListBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]models.Reminder, error)
	ListUpcoming(ctx context.Context, tenantID uuid.UUID, fromDate string, limit int) ([]models.Reminder, error)
	MarkSent(ctx context.Context, reminderID uuid.UUID) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a reminders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Delete(&models.Reminder{}).Error
}

func (r *repositoryImpl) BulkInsert(ctx context.Context, reminders []models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	for i := range reminders {
		if reminders[i].ID == uuid.Nil {
			reminders[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&reminders).Error
}

// ListBySubscription returns the stored schedule in generation order, which
// is ascending by reminder date for every policy.
func (r *repositoryImpl) ListBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]models.Reminder, error) {
	var rows []models.Reminder
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID).
		Order("reminder_date ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) ListUpcoming(ctx context.Context, tenantID uuid.UUID, fromDate string, limit int) ([]models.Reminder, error) {
	var rows []models.Reminder
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sent = ? AND reminder_date >= ?", tenantID, false, fromDate).
		Order("reminder_date ASC, created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) MarkSent(ctx context.Context, reminderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ?", reminderID).
		UpdateColumn("sent", true).Error
}

// DeleteOlderThan removes reminders whose creation time or calendar date
// precedes the cutoff. The comparison is strict so a row created exactly at
// the cutoff instant survives the sweep.
func (r *repositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ? OR reminder_date < ?", cutoff, cutoff.UTC().Format(DateLayout)).
		Delete(&models.Reminder{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
