package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
)

// Repository exposes inventory persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, inventory *models.Inventory) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) (*models.Inventory, error)
	List(ctx context.Context) ([]models.Inventory, error)
	ListLowStock(ctx context.Context) ([]models.Inventory, error)
	ListByStatus(ctx context.Context, status enums.InventoryStatus) ([]models.Inventory, error)
	ListWithExpiration(ctx context.Context) ([]models.Inventory, error)
	AdjustQuantity(ctx context.Context, productID uuid.UUID, delta int) (bool, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	UpdateStatus(ctx context.Context, productID uuid.UUID, status enums.InventoryStatus) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, inventory *models.Inventory) error {
	return r.db.WithContext(ctx).Create(inventory).Error
}

func (r *repositoryImpl) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindByProduct(ctx context.Context, productID uuid.UUID) (*models.Inventory, error) {
	var inventory models.Inventory
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("product_id = ?", productID).
		First(&inventory).Error
	if err != nil {
		return nil, err
	}
	return &inventory, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := r.db.WithContext(ctx).
		Preload("Product").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) ListLowStock(ctx context.Context) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("quantity <= min_stock").
		Order("quantity ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) ListByStatus(ctx context.Context, status enums.InventoryStatus) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("status = ?", status).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) ListWithExpiration(ctx context.Context) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := r.db.WithContext(ctx).
		Preload("Product").
		Joins("JOIN products ON products.id = inventory.product_id").
		Where("products.expiration_date IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AdjustQuantity applies a signed delta. Negative deltas only succeed when the
// row still holds enough stock, decided by the database in one statement.
func (r *repositoryImpl) AdjustQuantity(ctx context.Context, productID uuid.UUID, delta int) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("product_id = ?", productID)
	if delta < 0 {
		query = query.Where("quantity >= ?", -delta)
	}
	result := query.UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementStock removes qty units only when the row still holds at least qty.
func (r *repositoryImpl) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("product_id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, productID uuid.UUID, status enums.InventoryStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("product_id = ?", productID).
		UpdateColumn("status", status).Error
}
