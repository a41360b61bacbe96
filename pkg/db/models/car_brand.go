package models

import (
	"time"

	"github.com/google/uuid"
)

// CarBrand is a vehicle manufacturer used for fitment filtering.
type CarBrand struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Logo      *string    `gorm:"column:logo"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
