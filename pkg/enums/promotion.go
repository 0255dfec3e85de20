package enums

import "fmt"

// DiscountType determines how a promotion's value is applied.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
	DiscountTypeBuyXGetY   DiscountType = "buy_x_get_y"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFixed,
	DiscountTypeBuyXGetY,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}

// PromotionStatus is derived from a promotion's date window relative to now.
type PromotionStatus string

const (
	PromotionStatusScheduled PromotionStatus = "scheduled"
	PromotionStatusActive    PromotionStatus = "active"
	PromotionStatusExpired   PromotionStatus = "expired"
)

var validPromotionStatuses = []PromotionStatus{
	PromotionStatusScheduled,
	PromotionStatusActive,
	PromotionStatusExpired,
}

// String implements fmt.Stringer.
func (p PromotionStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionStatus.
func (p PromotionStatus) IsValid() bool {
	for _, candidate := range validPromotionStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionStatus converts raw input into a PromotionStatus.
func ParsePromotionStatus(value string) (PromotionStatus, error) {
	for _, candidate := range validPromotionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion status %q", value)
}
