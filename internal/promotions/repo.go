package promotions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
)

// Repository exposes promotion persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, promotion *models.Promotion) error
	CreateAll(ctx context.Context, promotions []*models.Promotion) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context) ([]models.Promotion, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	Save(ctx context.Context, promotion *models.Promotion) error
	ReplaceProducts(ctx context.Context, promotion *models.Promotion, products []models.Product) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PromotionStatus) error
	HasAutoPercentageForProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a promotion repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, promotion *models.Promotion) error {
	if promotion.ID == uuid.Nil {
		promotion.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(promotion).Error
}

// CreateAll persists a batch in one round trip, association rows included.
func (r *repositoryImpl) CreateAll(ctx context.Context, promotions []*models.Promotion) error {
	if len(promotions) == 0 {
		return nil
	}
	for _, promotion := range promotions {
		if promotion.ID == uuid.Nil {
			promotion.ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(promotions).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.WithContext(ctx).
		Preload("Products").
		First(&promotion, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.db.WithContext(ctx).
		Preload("Products").
		Order("start_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Promotion{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Save(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Omit("Products").Save(promotion).Error
}

func (r *repositoryImpl) ReplaceProducts(ctx context.Context, promotion *models.Promotion, products []models.Product) error {
	return r.db.WithContext(ctx).Model(promotion).Association("Products").Replace(products)
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PromotionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// HasAutoPercentageForProduct reports whether an automatic percentage promotion
// already targets the product. Callers race between this check and their
// insert; a duplicate slipping through is tolerated.
func (r *repositoryImpl) HasAutoPercentageForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Joins("JOIN promotion_products ON promotion_products.promotion_id = promotions.id").
		Where("promotion_products.product_id = ?", productID).
		Where("promotions.is_auto = ?", true).
		Where("promotions.discount_type = ?", enums.DiscountTypePercentage).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
