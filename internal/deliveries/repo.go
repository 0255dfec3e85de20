package deliveries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
)

// Repository exposes delivery persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	ListByStatus(ctx context.Context, status enums.DeliveryStatus) ([]models.Delivery, error)
	Save(ctx context.Context, delivery *models.Delivery) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a delivery repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, delivery *models.Delivery) error {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	if delivery.Status == "" {
		delivery.Status = enums.DeliveryStatusPending
	}
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *repositoryImpl) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *repositoryImpl) ListByStatus(ctx context.Context, status enums.DeliveryStatus) ([]models.Delivery, error) {
	var rows []models.Delivery
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Save(ctx context.Context, delivery *models.Delivery) error {
	return r.db.WithContext(ctx).Save(delivery).Error
}
