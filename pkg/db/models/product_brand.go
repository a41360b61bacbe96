package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductBrand is a parts manufacturer (Bosch, Denso, ...).
type ProductBrand struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Logo      *string    `gorm:"column:logo"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
