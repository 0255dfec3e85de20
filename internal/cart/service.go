package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
)

// productFinder confirms a product exists before it enters a cart.
type productFinder interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service defines the cart operations exposed to controllers.
type Service interface {
	GetActiveCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo     Repository
	products productFinder
}

// NewService wires cart dependencies.
func NewService(repo Repository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product finder required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) GetActiveCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	cart, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// AddItem creates the customer's active cart on the first add and increments
// the quantity when the product already sits in the cart.
func (s *service) AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if _, err := s.products.FindProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	cart, err := s.repo.FindActiveByCustomer(ctx, customerID)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		cart = &models.Cart{CustomerID: customerID}
		if err := s.repo.Create(ctx, cart); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	existing, err := s.repo.FindItemByProduct(ctx, cart.ID, productID)
	switch {
	case err == nil:
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		if err := s.repo.AddItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	return s.reload(ctx, customerID)
}

func (s *service) UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.reload(ctx, customerID)
}

func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	affected, err := s.repo.RemoveItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.reload(ctx, customerID)
}

func (s *service) reload(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return cart, nil
}
