package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/gearhouse/autoparts-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountDetails records how a cart line's frozen price was discounted.
// It is stored as a JSON column so the add-time pricing facts survive
// later changes to the offer that produced them.
type DiscountDetails struct {
	Type     enums.DiscountType `json:"type"`
	Percent  decimal.Decimal    `json:"percent"`
	SourceID uuid.UUID          `json:"source_id,omitempty"`
}

// NoDiscount returns the zero-valued details for an undiscounted line.
func NoDiscount() DiscountDetails {
	return DiscountDetails{Type: enums.DiscountTypeNone}
}

// IsZero reports whether no discount applies.
func (d DiscountDetails) IsZero() bool {
	return d.Type == "" || d.Type == enums.DiscountTypeNone
}

// Value implements driver.Valuer.
func (d DiscountDetails) Value() (driver.Value, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("discount details: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (d *DiscountDetails) Scan(value any) error {
	if value == nil {
		*d = NoDiscount()
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("discount details: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*d = NoDiscount()
		return nil
	}
	return json.Unmarshal(raw, d)
}
