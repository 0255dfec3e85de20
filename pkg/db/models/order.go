package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merkadolite/merkadolite-backend/pkg/enums"
)

// Order is a confirmed purchase. Total is the sum of line subtotals at
// creation time and is never recomputed.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID     uuid.UUID            `gorm:"column:customer_id;type:uuid;not null"`
	OrderDate      time.Time            `gorm:"column:order_date;not null"`
	Status         enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Total          decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod  enums.PaymentMethod  `gorm:"column:payment_method;type:payment_method;not null"`
	DeliveryMethod enums.DeliveryMethod `gorm:"column:delivery_method;type:delivery_method;not null"`
	Details        []OrderDetail        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
