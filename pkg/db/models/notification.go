package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/subtrackr/subtrackr-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to tenants. Rows
// produced by the reminder sweep reference the reminder that triggered them
// and are swept by the retention job alongside old reminders.
type Notification struct {
	ID             uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID       uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null;index"`
	SubscriptionID *uuid.UUID             `gorm:"column:subscription_id;type:uuid"`
	ReminderID     *uuid.UUID             `gorm:"column:reminder_id;type:uuid"`
	Type           enums.NotificationType `gorm:"type:text;not null"`
	Title          string                 `gorm:"type:text;not null"`
	Message        string                 `gorm:"type:text;not null"`
	ReadAt         *time.Time             `gorm:"column:read_at;type:timestamptz"`
	CreatedAt      time.Time              `gorm:"type:timestamptz;default:now()"`
}
