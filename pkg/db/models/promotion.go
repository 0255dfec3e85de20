package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merkadolite/merkadolite-backend/pkg/enums"
)

// Promotion is a discount window over a set of products. Status is a cache of
// the pure date-window derivation, refreshed on read paths.
type Promotion struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Description  *string               `gorm:"column:description;type:text"`
	DiscountType enums.DiscountType    `gorm:"column:discount_type;type:discount_type;not null"`
	Value        decimal.Decimal       `gorm:"column:value;type:numeric(12,2);not null"`
	StartDate    time.Time             `gorm:"column:start_date;not null"`
	EndDate      time.Time             `gorm:"column:end_date;not null"`
	Status       enums.PromotionStatus `gorm:"column:status;type:promotion_status;not null;default:'scheduled'"`
	IsAuto       bool                  `gorm:"column:is_auto;not null;default:false"`
	Products     []Product             `gorm:"many2many:promotion_products"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
