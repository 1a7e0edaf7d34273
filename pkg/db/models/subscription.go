package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/subtrackr/subtrackr-backend/pkg/enums"
)

// Subscription is a recurring commitment tracked by a tenant: a SaaS seat, a
// compliance filing, a vendor payment. RenewalDate is nullable; a subscription
// without one simply generates no reminders.
type Subscription struct {
	ID             uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID       uuid.UUID                `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name           string                   `gorm:"type:text;not null"`
	Vendor         string                   `gorm:"type:text;not null;default:''"`
	Category       string                   `gorm:"type:text;not null;default:''"`
	Cost           decimal.Decimal          `gorm:"type:numeric(12,2);not null;default:0"`
	Currency       string                   `gorm:"type:text;not null;default:'USD'"`
	BillingCycle   enums.BillingCycle       `gorm:"column:billing_cycle;type:text;not null;default:'monthly'"`
	RenewalDate    *time.Time               `gorm:"column:renewal_date;type:date"`
	ReminderPolicy enums.ReminderPolicy     `gorm:"column:reminder_policy;type:text;not null;default:'One time'"`
	ReminderDays   int                      `gorm:"column:reminder_days;not null;default:7"`
	Status         enums.SubscriptionStatus `gorm:"type:text;not null;default:'active';index"`
	Notes          string                   `gorm:"type:text;not null;default:''"`
	CreatedAt      time.Time                `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt      time.Time                `gorm:"type:timestamptz;autoUpdateTime"`
}
