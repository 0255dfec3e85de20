package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merkadolite/merkadolite-backend/pkg/enums"
)

// Cart is a customer's in-progress collection of line items. A cart is never
// deleted; it transitions to ordered at order confirmation.
type Cart struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID        `gorm:"column:customer_id;type:uuid;not null"`
	Status     enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Items      []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
