package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gearhouse/autoparts-backend/pkg/types"
)

// CartItem is a cart line with add-time frozen pricing. OriginalPrice
// and FinalPrice never change after insert except through VoidBundle.
type CartItem struct {
	ID             uuid.UUID             `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	CartID         uuid.UUID             `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID      uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string                `gorm:"column:product_name;not null"`
	Quantity       int                   `gorm:"column:quantity;not null"`
	OriginalPrice  decimal.Decimal       `gorm:"column:original_price;type:numeric(12,2);not null"`
	FinalPrice     decimal.Decimal       `gorm:"column:final_price;type:numeric(12,2);not null"`
	Discount       types.DiscountDetails `gorm:"column:discount;type:jsonb;serializer:json"`
	BundleGroupID  *uuid.UUID            `gorm:"column:bundle_group_id;type:uuid;index"`
	AddedByAdminID *uuid.UUID            `gorm:"column:added_by_admin_id;type:uuid"`
	AddedAt        time.Time             `gorm:"column:added_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// SameLine reports whether another add with the given product and
// bundle group should merge into this line.
func (c CartItem) SameLine(productID uuid.UUID, bundleGroupID *uuid.UUID) bool {
	if c.ProductID != productID {
		return false
	}
	if c.BundleGroupID == nil && bundleGroupID == nil {
		return true
	}
	if c.BundleGroupID == nil || bundleGroupID == nil {
		return false
	}
	return *c.BundleGroupID == *bundleGroupID
}
