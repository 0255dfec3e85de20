package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/config"
	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

// roleLister resolves notification recipients by role.
type roleLister interface {
	FindByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
}

// notifier records a best-effort message for a user.
type notifier interface {
	Send(ctx context.Context, userID uuid.UUID, message string) error
}

// promotionGenerator is chained at the end of every expiration sweep.
type promotionGenerator interface {
	GenerateAuto(ctx context.Context) (int, error)
}

// Service defines stock and expiration operations.
type Service interface {
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*models.Inventory, error)
	SweepExpirations(ctx context.Context) (*SweepSummary, error)
	List(ctx context.Context) ([]models.Inventory, error)
	GetByProduct(ctx context.Context, productID uuid.UUID) (*models.Inventory, error)
	ListLowStock(ctx context.Context) ([]models.Inventory, error)
	ListByStatus(ctx context.Context, status enums.InventoryStatus) ([]models.Inventory, error)
}

// SweepSummary reports what a single expiration sweep did.
type SweepSummary struct {
	Scanned           int `json:"scanned"`
	Changed           int `json:"changed"`
	Expired           int `json:"expired"`
	ExpiringSoon      int `json:"expiring_soon"`
	PromotionsCreated int `json:"promotions_created"`
}

type service struct {
	repo          Repository
	users         roleLister
	notifications notifier
	promotions    promotionGenerator
	cfg           config.SweepConfig
	logg          *logger.Logger
	now           func() time.Time
}

// NewService wires inventory dependencies.
func NewService(repo Repository, users roleLister, notifications notifier, promotions promotionGenerator, cfg config.SweepConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "role lister required")
	}
	if notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	if promotions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "promotion generator required")
	}
	return &service{
		repo:          repo,
		users:         users,
		notifications: notifications,
		promotions:    promotions,
		cfg:           cfg,
		logg:          logg,
		now:           time.Now,
	}, nil
}

// AdjustStock applies a signed delta to a product's quantity. The decrement is
// a single conditional UPDATE, so the stored quantity can never go negative.
func (s *service) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*models.Inventory, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	current, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	ok, err := s.repo.AdjustQuantity(ctx, productID, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust quantity")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
	}

	updated, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory")
	}

	if updated.Quantity <= updated.MinStock {
		name := productID.String()
		if current.Product != nil {
			name = current.Product.Name
		}
		message := fmt.Sprintf("Low stock for %s: %d units left (minimum %d)", name, updated.Quantity, updated.MinStock)
		s.notifyRoles(ctx, message, enums.UserRoleWarehouseManager)
	}

	return updated, nil
}

// SweepExpirations reclassifies every inventory row whose product carries an
// expiration date, notifies administrators and sellers about non-normal
// transitions, and then unconditionally runs the promotion generator. A sweep
// over unchanged data persists nothing and sends nothing.
func (s *service) SweepExpirations(ctx context.Context) (*SweepSummary, error) {
	rows, err := s.repo.ListWithExpiration(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list perishable inventory")
	}

	today := dateOnly(s.now().UTC())
	summary := &SweepSummary{Scanned: len(rows)}

	for i := range rows {
		row := &rows[i]
		if row.Product == nil || row.Product.ExpirationDate == nil {
			continue
		}

		status := classify(*row.Product.ExpirationDate, today, s.cfg.ExpiringSoonDays)
		switch status {
		case enums.InventoryStatusExpired:
			summary.Expired++
		case enums.InventoryStatusExpiringSoon:
			summary.ExpiringSoon++
		}
		if status == row.Status {
			continue
		}

		if err := s.repo.UpdateStatus(ctx, row.ProductID, status); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist inventory status")
		}
		summary.Changed++

		if status != enums.InventoryStatusNormal {
			message := fmt.Sprintf("%s is now %s", row.Product.Name, strings.ReplaceAll(status.String(), "_", " "))
			s.notifyRoles(ctx, message, enums.UserRoleAdministrator, enums.UserRoleSeller)
		}
	}

	created, err := s.promotions.GenerateAuto(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate promotions")
	}
	summary.PromotionsCreated = created

	return summary, nil
}

func (s *service) List(ctx context.Context) ([]models.Inventory, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	return rows, nil
}

func (s *service) GetByProduct(ctx context.Context, productID uuid.UUID) (*models.Inventory, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	row, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return row, nil
}

func (s *service) ListLowStock(ctx context.Context) ([]models.Inventory, error) {
	rows, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return rows, nil
}

func (s *service) ListByStatus(ctx context.Context, status enums.InventoryStatus) ([]models.Inventory, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid inventory status")
	}
	rows, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory by status")
	}
	return rows, nil
}

// notifyRoles fans a message out to every user holding any of the roles.
// Delivery is best effort; failures are logged and never abort the caller.
func (s *service) notifyRoles(ctx context.Context, message string, roles ...enums.UserRole) {
	for _, role := range roles {
		recipients, err := s.users.FindByRole(ctx, role)
		if err != nil {
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("resolving %s recipients failed: %v", role, err))
			}
			continue
		}
		for _, recipient := range recipients {
			if err := s.notifications.Send(ctx, recipient.ID, message); err != nil && s.logg != nil {
				s.logg.Warn(s.logg.WithUserID(ctx, recipient.ID.String()), "notification dispatch failed")
			}
		}
	}
}

// classify maps an expiration date to a status using date-only comparison.
func classify(expiration, today time.Time, windowDays int) enums.InventoryStatus {
	exp := dateOnly(expiration)
	if exp.Before(today) {
		return enums.InventoryStatusExpired
	}
	if !exp.After(today.AddDate(0, 0, windowDays)) {
		return enums.InventoryStatusExpiringSoon
	}
	return enums.InventoryStatusNormal
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
