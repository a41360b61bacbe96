package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber grants the subscriber role to the matching account email.
type Subscriber struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Email     string     `gorm:"type:text;not null;index"`
	Name      string     `gorm:"column:name;not null"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
