package enums

import "fmt"

// PromotionType distinguishes storefront promotion placements.
type PromotionType string

const (
	PromotionTypeBanner   PromotionType = "banner"
	PromotionTypeFlash    PromotionType = "flash_sale"
	PromotionTypeSeasonal PromotionType = "seasonal"
)

var validPromotionTypes = []PromotionType{
	PromotionTypeBanner,
	PromotionTypeFlash,
	PromotionTypeSeasonal,
}

// String implements fmt.Stringer.
func (p PromotionType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionType.
func (p PromotionType) IsValid() bool {
	for _, candidate := range validPromotionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionType converts raw input into a PromotionType.
func ParsePromotionType(value string) (PromotionType, error) {
	for _, candidate := range validPromotionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion type %q", value)
}
