package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Admin grants the admin role to the matching account email and
// accumulates settled product revenue.
type Admin struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Email     string          `gorm:"type:text;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Phone     *string         `gorm:"column:phone"`
	Revenue   decimal.Decimal `gorm:"column:revenue;type:numeric(14,2);not null;default:0"`
	DeletedAt *time.Time      `gorm:"column:deleted_at;index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
