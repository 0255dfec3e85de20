package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
)

// cartStore supplies the customer's active cart and closes it after checkout.
type cartStore interface {
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
}

// stockStore checks and decrements per-product inventory.
type stockStore interface {
	FindByProduct(ctx context.Context, productID uuid.UUID) (*models.Inventory, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
}

// Service defines order operations.
type Service interface {
	ConfirmOrder(ctx context.Context, input ConfirmInput) (*Confirmation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
}

// ConfirmInput carries a checkout request.
type ConfirmInput struct {
	CustomerID     uuid.UUID
	DeliveryMethod enums.DeliveryMethod
	PaymentMethod  enums.PaymentMethod
}

// Confirmation is the checkout result returned to the customer.
type Confirmation struct {
	OrderID uuid.UUID       `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

type service struct {
	repo  Repository
	carts cartStore
	stock stockStore
	now   func() time.Time
}

// NewService wires order dependencies.
func NewService(repo Repository, carts cartStore, stock stockStore) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order repository required")
	}
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart store required")
	}
	if stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stock store required")
	}
	return &service{repo: repo, carts: carts, stock: stock, now: time.Now}, nil
}

// ConfirmOrder validates the customer's active cart against inventory, then
// commits order, line items, stock decrements, and cart closure as separate
// writes. There is no transaction and no compensating rollback: a failure
// partway through leaves the earlier writes in place. The validation pass runs
// first so the common failure modes reject before anything is written.
func (s *service) ConfirmOrder(ctx context.Context, input ConfirmInput) (*Confirmation, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	cart, err := s.carts.FindActiveByCustomer(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	total := decimal.Zero
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("missing inventory for product %s", item.ProductID))
		}
		stock, err := s.stock.FindByProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("missing inventory for %s", item.Product.Name))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}
		if item.Quantity > stock.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", item.Product.Name))
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	order := &models.Order{
		CustomerID:     input.CustomerID,
		OrderDate:      s.now().UTC(),
		Status:         enums.OrderStatusPending,
		Total:          total,
		PaymentMethod:  input.PaymentMethod,
		DeliveryMethod: input.DeliveryMethod,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		subtotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		detail := &models.OrderDetail{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Product.Price,
			Subtotal:  subtotal,
		}
		if err := s.repo.CreateDetail(ctx, detail); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order detail")
		}
		ok, err := s.stock.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			// Stock moved between validation and commit. Earlier writes stay.
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", item.Product.Name))
		}
	}

	if err := s.carts.UpdateStatus(ctx, cart.ID, enums.CartStatusOrdered); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close cart")
	}

	return &Confirmation{OrderID: order.ID, Total: total}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}
