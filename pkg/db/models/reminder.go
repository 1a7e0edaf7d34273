package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/subtrackr/subtrackr-backend/pkg/enums"
)

// Reminder is one derived entry of a subscription's reminder schedule. The
// whole set is regenerated whenever the owning subscription changes; rows are
// never patched individually. ReminderDate is a calendar day kept as a
// YYYY-MM-DD string so due matching is exact string equality.
type Reminder struct {
	ID             uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID       uuid.UUID                `gorm:"column:tenant_id;type:uuid;not null;index"`
	SubscriptionID uuid.UUID                `gorm:"column:subscription_id;type:uuid;not null;index"`
	ReminderType   string                   `gorm:"column:reminder_type;type:text;not null"`
	ReminderDate   string                   `gorm:"column:reminder_date;type:text;not null;index"`
	Sent           bool                     `gorm:"not null;default:false"`
	Status         enums.SubscriptionStatus `gorm:"type:text;not null"`
	CreatedAt      time.Time                `gorm:"type:timestamptz;autoCreateTime"`
}
