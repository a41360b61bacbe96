package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is a snapshot of a cart line at checkout time.
type OrderLine struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	Discount      DiscountDetails `json:"discount"`
	BundleGroupID *uuid.UUID      `json:"bundle_group_id,omitempty"`
}

// OrderLines is stored as a JSON column on orders.
type OrderLines []OrderLine

// Value implements driver.Valuer.
func (o OrderLines) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("order lines: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (o *OrderLines) Scan(value any) error {
	if value == nil {
		*o = OrderLines{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("order lines: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*o = OrderLines{}
		return nil
	}
	return json.Unmarshal(raw, o)
}
