package models

import (
	"time"

	"github.com/google/uuid"
)

// Partner grants the partner role to the matching account email.
type Partner struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Email     string     `gorm:"type:text;not null;index"`
	Name      string     `gorm:"column:name;not null"`
	Phone     *string    `gorm:"column:phone"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
