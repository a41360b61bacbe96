package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/pkg/enums"
)

// Notification is a per-user message row.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	Type      enums.NotificationType `gorm:"column:type;not null"`
	Read      bool                   `gorm:"column:read;not null;default:false"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
