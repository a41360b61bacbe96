package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. Accounts carry no
// password; authentication is delegated to the identity provider.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Email     string     `gorm:"type:text;not null;uniqueIndex"`
	Name      string     `gorm:"column:name;not null"`
	Picture   *string    `gorm:"column:picture"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDeleted reports whether the account was soft-deleted.
func (u User) IsDeleted() bool {
	return u.DeletedAt != nil
}
