package promotions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/config"
	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

// expiringLister surfaces inventory rows flagged as expiring soon.
type expiringLister interface {
	ListByStatus(ctx context.Context, status enums.InventoryStatus) ([]models.Inventory, error)
}

// roleLister resolves notification recipients by role.
type roleLister interface {
	FindByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
}

// notifier records a best-effort message for a user.
type notifier interface {
	Send(ctx context.Context, userID uuid.UUID, message string) error
}

// Service defines promotion operations.
type Service interface {
	GenerateAuto(ctx context.Context) (int, error)
	Create(ctx context.Context, input CreateInput) (*models.Promotion, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context) ([]models.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Promotion, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput carries a manually entered promotion.
type CreateInput struct {
	Description  *string
	DiscountType enums.DiscountType
	Value        decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
	ProductIDs   []uuid.UUID
}

type service struct {
	repo          Repository
	inventory     expiringLister
	users         roleLister
	notifications notifier
	cfg           config.PromoConfig
	logg          *logger.Logger
	now           func() time.Time
}

// NewService wires promotion dependencies.
func NewService(repo Repository, inventory expiringLister, users roleLister, notifications notifier, cfg config.PromoConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "promotion repository required")
	}
	if inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory lister required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "role lister required")
	}
	if notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	return &service{
		repo:          repo,
		inventory:     inventory,
		users:         users,
		notifications: notifications,
		cfg:           cfg,
		logg:          logg,
		now:           time.Now,
	}, nil
}

// StatusFor derives a promotion's status from its date window. The stored
// status column is only a cache of this derivation.
func StatusFor(now, startDate, endDate time.Time) enums.PromotionStatus {
	if now.Before(startDate) {
		return enums.PromotionStatusScheduled
	}
	if now.After(endDate) {
		return enums.PromotionStatusExpired
	}
	return enums.PromotionStatusActive
}

// GenerateAuto builds a percentage promotion for every expiring-soon product
// that does not already carry one. New rows are collected and persisted in a
// single batch, then administrators are told about each. The duplicate check
// is not safe against concurrent runs; an occasional extra promotion is
// accepted over locking the table.
func (s *service) GenerateAuto(ctx context.Context) (int, error) {
	rows, err := s.inventory.ListByStatus(ctx, enums.InventoryStatusExpiringSoon)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expiring inventory")
	}

	now := s.now().UTC()
	value := decimal.NewFromInt(int64(s.cfg.DefaultDiscountPercent))
	endDate := now.AddDate(0, 0, s.cfg.DefaultDurationDays)

	var pending []*models.Promotion
	var names []string
	for i := range rows {
		row := &rows[i]
		exists, err := s.repo.HasAutoPercentageForProduct(ctx, row.ProductID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing promotion")
		}
		if exists {
			continue
		}

		name := row.ProductID.String()
		if row.Product != nil {
			name = row.Product.Name
		}
		description := fmt.Sprintf("Automatic %d%% discount on %s", s.cfg.DefaultDiscountPercent, name)
		pending = append(pending, &models.Promotion{
			Description:  &description,
			DiscountType: enums.DiscountTypePercentage,
			Value:        value,
			StartDate:    now,
			EndDate:      endDate,
			Status:       enums.PromotionStatusActive,
			IsAuto:       true,
			Products:     []models.Product{{ID: row.ProductID}},
		})
		names = append(names, name)
	}

	if len(pending) == 0 {
		return 0, nil
	}
	if err := s.repo.CreateAll(ctx, pending); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist promotions")
	}

	for _, name := range names {
		message := fmt.Sprintf("Automatic promotion created for %s (%d%% off)", name, s.cfg.DefaultDiscountPercent)
		s.notifyRole(ctx, enums.UserRoleAdministrator, message)
	}

	return len(pending), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Promotion, error) {
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if !input.Value.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be positive")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if len(input.ProductIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one product required")
	}

	products := make([]models.Product, 0, len(input.ProductIDs))
	for _, id := range input.ProductIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		products = append(products, models.Product{ID: id})
	}

	promotion := &models.Promotion{
		Description:  input.Description,
		DiscountType: input.DiscountType,
		Value:        input.Value,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Status:       StatusFor(s.now().UTC(), input.StartDate, input.EndDate),
		Products:     products,
	}
	if err := s.repo.Create(ctx, promotion); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	return s.Get(ctx, promotion.ID)
}

// Get reloads a promotion and refreshes its cached status when the date
// window has moved it along.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}
	promotion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	if err := s.refreshStatus(ctx, promotion); err != nil {
		return nil, err
	}
	return promotion, nil
}

func (s *service) List(ctx context.Context) ([]models.Promotion, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	for i := range rows {
		if err := s.refreshStatus(ctx, &rows[i]); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// UpdateInput carries optional promotion edits. Nil fields keep their value.
type UpdateInput struct {
	Description *string
	Value       *decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
	ProductIDs  []uuid.UUID
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Promotion, error) {
	promotion, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		promotion.Description = input.Description
	}
	if input.Value != nil {
		if !input.Value.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be positive")
		}
		promotion.Value = *input.Value
	}
	if input.StartDate != nil {
		promotion.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		promotion.EndDate = *input.EndDate
	}
	if !promotion.EndDate.After(promotion.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	promotion.Status = StatusFor(s.now().UTC(), promotion.StartDate, promotion.EndDate)

	if err := s.repo.Save(ctx, promotion); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save promotion")
	}
	if input.ProductIDs != nil {
		if len(input.ProductIDs) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one product required")
		}
		products := make([]models.Product, 0, len(input.ProductIDs))
		for _, productID := range input.ProductIDs {
			products = append(products, models.Product{ID: productID})
		}
		if err := s.repo.ReplaceProducts(ctx, promotion, products); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace promotion products")
		}
	}

	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promotion")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
	}
	return nil
}

func (s *service) refreshStatus(ctx context.Context, promotion *models.Promotion) error {
	derived := StatusFor(s.now().UTC(), promotion.StartDate, promotion.EndDate)
	if derived == promotion.Status {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, promotion.ID, derived); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh promotion status")
	}
	promotion.Status = derived
	return nil
}

func (s *service) notifyRole(ctx context.Context, role enums.UserRole, message string) {
	recipients, err := s.users.FindByRole(ctx, role)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("resolving %s recipients failed: %v", role, err))
		}
		return
	}
	for _, recipient := range recipients {
		if err := s.notifications.Send(ctx, recipient.ID, message); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, recipient.ID.String()), "notification dispatch failed")
		}
	}
}
