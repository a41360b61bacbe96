package models

import (
	"time"

	"github.com/google/uuid"
)

// CarModel is a vehicle model with its production year range.
type CarModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	CarBrandID uuid.UUID  `gorm:"column:car_brand_id;type:uuid;not null;index"`
	Name       string     `gorm:"column:name;not null"`
	YearFrom   int        `gorm:"column:year_from;not null"`
	YearTo     *int       `gorm:"column:year_to"`
	DeletedAt  *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
