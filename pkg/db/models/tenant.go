package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated customer organization. Every other record carries a
// tenant_id back to one of these rows.
type Tenant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	Plan      string    `gorm:"type:text;not null;default:'free'"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}
