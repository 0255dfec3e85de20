package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. ExpirationDate is nil for non-perishables.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name           string          `gorm:"column:name;type:text;not null"`
	Description    *string         `gorm:"column:description;type:text"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ExpirationDate *time.Time      `gorm:"column:expiration_date;type:date"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
