package deliveries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

// driverFinder resolves the driver confirming a delivery.
type driverFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// orderStore looks up an order at dispatch and advances it at hand-off.
// UpdateStatus silently no-ops when the order row is gone.
type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

// Service defines delivery operations.
type Service interface {
	Dispatch(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	Deliver(ctx context.Context, orderID, driverID uuid.UUID) (*models.Delivery, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	ListPending(ctx context.Context) ([]models.Delivery, error)
}

type service struct {
	repo    Repository
	drivers driverFinder
	orders  orderStore
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires delivery dependencies.
func NewService(repo Repository, drivers driverFinder, orders orderStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "delivery repository required")
	}
	if drivers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "driver finder required")
	}
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order store required")
	}
	return &service{repo: repo, drivers: drivers, orders: orders, logg: logg, now: time.Now}, nil
}

// Dispatch opens a pending delivery for a confirmed order.
func (s *service) Dispatch(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if _, err := s.repo.FindByOrder(ctx, orderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "delivery already exists for order")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}

	delivery := &models.Delivery{OrderID: orderID, Status: enums.DeliveryStatusPending}
	if err := s.repo.Create(ctx, delivery); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
	}
	return delivery, nil
}

// Deliver marks the order's delivery as handed over by the given driver, then
// advances the linked order. The order update tolerates a missing row.
func (s *service) Deliver(ctx context.Context, orderID, driverID uuid.UUID) (*models.Delivery, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}

	delivery, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	if delivery.Status == enums.DeliveryStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered")
	}

	if _, err := s.drivers.FindByID(ctx, driverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}

	deliveredAt := s.now().UTC()
	delivery.DriverID = &driverID
	delivery.Status = enums.DeliveryStatusDelivered
	delivery.DeliveredDate = &deliveredAt
	if err := s.repo.Save(ctx, delivery); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save delivery")
	}

	if err := s.orders.UpdateStatus(ctx, orderID, enums.OrderStatusDelivered); err != nil && s.logg != nil {
		s.logg.Error(ctx, "advancing order after delivery failed", err)
	}

	return delivery, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	delivery, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	return delivery, nil
}

func (s *service) ListPending(ctx context.Context) ([]models.Delivery, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.DeliveryStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending deliveries")
	}
	return rows, nil
}
