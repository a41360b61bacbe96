package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the single active cart for a user, lazily created.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
