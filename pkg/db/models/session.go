package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is an opaque server-side login token.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Token     string    `gorm:"type:text;not null;uniqueIndex"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ExpiredAt reports whether the session no longer authorizes at the
// given instant. A session expiring exactly now is expired.
func (s Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
