package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/gearhouse/autoparts-backend/pkg/db/types"
)

// BundleOffer discounts a set of products added to the cart together.
type BundleOffer struct {
	ID                 uuid.UUID         `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Title              string            `gorm:"column:title;not null"`
	DiscountPercentage decimal.Decimal   `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	ProductIDs         dbtypes.UUIDArray `gorm:"column:product_ids;type:uuid[]"`
	Active             bool              `gorm:"column:active;not null;default:true"`
	DeletedAt          *time.Time        `gorm:"column:deleted_at;index"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
