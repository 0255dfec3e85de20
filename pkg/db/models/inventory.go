package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merkadolite/merkadolite-backend/pkg/enums"
)

// Inventory tracks the on-hand quantity per product.
type Inventory struct {
	ProductID uuid.UUID             `gorm:"column:product_id;type:uuid;primaryKey"`
	Quantity  int                   `gorm:"column:quantity;not null;default:0"`
	MinStock  int                   `gorm:"column:min_stock;not null;default:0"`
	Location  *string               `gorm:"column:location;type:text"`
	Status    enums.InventoryStatus `gorm:"column:status;type:inventory_status;not null;default:'normal'"`
	Product   *Product              `gorm:"foreignKey:ProductID"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singular table name used by the schema.
func (Inventory) TableName() string {
	return "inventory"
}
