package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	dbtypes "github.com/gearhouse/autoparts-backend/pkg/db/types"
)

// Product is a sellable auto part.
type Product struct {
	ID             uuid.UUID         `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	Name           string            `gorm:"column:name;not null"`
	Description    string            `gorm:"column:description"`
	SKU            string            `gorm:"column:sku;not null;uniqueIndex"`
	Price          decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	StockQuantity  int               `gorm:"column:stock_quantity;not null;default:0"`
	Images         pq.StringArray    `gorm:"column:images;type:text[]"`
	CategoryID     *uuid.UUID        `gorm:"column:category_id;type:uuid;index"`
	ProductBrandID *uuid.UUID        `gorm:"column:product_brand_id;type:uuid;index"`
	CarModelIDs    dbtypes.UUIDArray `gorm:"column:car_model_ids;type:uuid[]"`
	Hidden         bool              `gorm:"column:hidden;not null;default:false"`
	AddedByAdminID *uuid.UUID        `gorm:"column:added_by_admin_id;type:uuid;index"`
	Settled        bool              `gorm:"column:settled;not null;default:false"`
	DeletedAt      *time.Time        `gorm:"column:deleted_at;index"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
