package enums

import "fmt"

// InventoryStatus classifies an inventory row by its product's expiration date.
type InventoryStatus string

const (
	InventoryStatusNormal       InventoryStatus = "normal"
	InventoryStatusExpiringSoon InventoryStatus = "expiring_soon"
	InventoryStatusExpired      InventoryStatus = "expired"
)

var validInventoryStatuses = []InventoryStatus{
	InventoryStatusNormal,
	InventoryStatusExpiringSoon,
	InventoryStatusExpired,
}

// String implements fmt.Stringer.
func (i InventoryStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InventoryStatus.
func (i InventoryStatus) IsValid() bool {
	for _, candidate := range validInventoryStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInventoryStatus converts raw input into an InventoryStatus.
func ParseInventoryStatus(value string) (InventoryStatus, error) {
	for _, candidate := range validInventoryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory status %q", value)
}
