package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gearhouse/autoparts-backend/pkg/enums"
	"github.com/gearhouse/autoparts-backend/pkg/types"
)

// Order is a checkout snapshot. Items are frozen as JSON so later
// catalog edits never rewrite history.
type Order struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Items         types.OrderLines  `gorm:"column:items;type:jsonb;serializer:json"`
	Subtotal      decimal.Decimal   `gorm:"column:subtotal;type:numeric(14,2);not null"`
	TotalDiscount decimal.Decimal   `gorm:"column:total_discount;type:numeric(14,2);not null"`
	Total         decimal.Decimal   `gorm:"column:total;type:numeric(14,2);not null"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	ShippingName  string            `gorm:"column:shipping_name;not null"`
	ShippingPhone string            `gorm:"column:shipping_phone;not null"`
	ShippingAddr  string            `gorm:"column:shipping_addr;not null"`
	Notes         *string           `gorm:"column:notes"`
	DeletedAt     *time.Time        `gorm:"column:deleted_at;index"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
