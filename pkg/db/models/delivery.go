package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merkadolite/merkadolite-backend/pkg/enums"
)

// Delivery tracks the hand-off of an order. Status only ever advances from
// pending to delivered.
type Delivery struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	DriverID      *uuid.UUID           `gorm:"column:driver_id;type:uuid"`
	Status        enums.DeliveryStatus `gorm:"column:status;type:delivery_status;not null;default:'pending'"`
	DeliveredDate *time.Time           `gorm:"column:delivered_date"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
