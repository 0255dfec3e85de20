package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
)

type gormProductFinder struct {
	db *gorm.DB
}

func (f *gormProductFinder) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := f.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func newTestEnv(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Cart{}, &models.CartItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(conn), &gormProductFinder{db: conn})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestAddItemCreatesCartOnFirstAdd(t *testing.T) {
	svc, db := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()
	product := seedProduct(t, db, "Milk", "2.50")

	cart, err := svc.AddItem(ctx, customer, product.ID, 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if cart.Status != enums.CartStatusActive {
		t.Fatalf("expected active cart, got %s", cart.Status)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", cart.Items)
	}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc, db := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()
	product := seedProduct(t, db, "Bread", "1.20")

	if _, err := svc.AddItem(ctx, customer, product.ID, 1); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(ctx, customer, product.ID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected a single line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemRejectsUnknownProduct(t *testing.T) {
	svc, _ := newTestEnv(t)
	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateItemValidatesQuantity(t *testing.T) {
	svc, db := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()
	product := seedProduct(t, db, "Eggs", "3.00")

	cart, err := svc.AddItem(ctx, customer, product.ID, 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	itemID := cart.Items[0].ID

	_, err = svc.UpdateItem(ctx, customer, itemID, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	updated, err := svc.UpdateItem(ctx, customer, itemID, 5)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", updated.Items[0].Quantity)
	}
}

func TestRemoveItem(t *testing.T) {
	svc, db := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()
	first := seedProduct(t, db, "Rice", "4.00")
	second := seedProduct(t, db, "Beans", "3.50")

	if _, err := svc.AddItem(ctx, customer, first.ID, 1); err != nil {
		t.Fatalf("add first: %v", err)
	}
	cart, err := svc.AddItem(ctx, customer, second.ID, 1)
	if err != nil {
		t.Fatalf("add second: %v", err)
	}

	removed, err := svc.RemoveItem(ctx, customer, cart.Items[0].ID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(removed.Items) != 1 {
		t.Fatalf("expected one remaining line, got %d", len(removed.Items))
	}

	_, err = svc.RemoveItem(ctx, customer, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing item, got %v", err)
	}
}
