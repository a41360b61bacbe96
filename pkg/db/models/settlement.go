package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/gearhouse/autoparts-backend/pkg/db/types"
)

// Settlement records one admin revenue settlement run.
type Settlement struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:(gen_random_uuid());primaryKey"`
	AdminID    uuid.UUID         `gorm:"column:admin_id;type:uuid;not null;index"`
	Amount     decimal.Decimal   `gorm:"column:amount;type:numeric(14,2);not null"`
	ProductIDs dbtypes.UUIDArray `gorm:"column:product_ids;type:uuid[]"`
	SettledBy  uuid.UUID         `gorm:"column:settled_by;type:uuid;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
