package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/pkg/enums"
)

// Promotion is a storefront marketing placement.
type Promotion struct {
	ID        uuid.UUID           `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Title     string              `gorm:"column:title;not null"`
	Type      enums.PromotionType `gorm:"column:type;not null"`
	Image     *string             `gorm:"column:image"`
	LinkURL   *string             `gorm:"column:link_url"`
	Active    bool                `gorm:"column:active;not null;default:true"`
	StartsAt  *time.Time          `gorm:"column:starts_at"`
	EndsAt    *time.Time          `gorm:"column:ends_at"`
	DeletedAt *time.Time          `gorm:"column:deleted_at;index"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
