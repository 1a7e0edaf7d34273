package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/subtrackr/subtrackr-backend/pkg/enums"
)

// User is a login identity scoped to a single tenant.
type User struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID     uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;index"`
	Email        string           `gorm:"type:text;not null;unique"`
	PasswordHash string           `gorm:"column:password_hash;type:text;not null"`
	FullName     string           `gorm:"column:full_name;type:text;not null"`
	Role         enums.MemberRole `gorm:"type:text;not null;default:'member'"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at;type:timestamptz"`
	CreatedAt    time.Time        `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"type:timestamptz;autoUpdateTime"`
}
