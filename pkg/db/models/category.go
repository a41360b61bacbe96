package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a product grouping, optionally nested under a parent.
type Category struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	SortOrder int        `gorm:"column:sort_order;not null;default:0"`
	Image     *string    `gorm:"column:image"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
