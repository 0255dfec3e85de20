package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/internal/cart"
	"github.com/merkadolite/merkadolite-backend/internal/inventory"
	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
)

func newTestEnv(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Product{},
		&models.Inventory{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderDetail{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(NewRepository(conn), cart.NewRepository(conn), inventory.NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedProductWithStock(t *testing.T, db *gorm.DB, name, price string, quantity int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	row := &models.Inventory{ProductID: product.ID, Quantity: quantity, Status: enums.InventoryStatusNormal}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return product
}

func seedCart(t *testing.T, db *gorm.DB, customerID uuid.UUID, lines map[uuid.UUID]int) *models.Cart {
	t.Helper()
	c := &models.Cart{ID: uuid.New(), CustomerID: customerID, Status: enums.CartStatusActive}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for productID, quantity := range lines {
		item := &models.CartItem{ID: uuid.New(), CartID: c.ID, ProductID: productID, Quantity: quantity}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return c
}

func stockFor(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var row models.Inventory
	if err := db.First(&row, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return row.Quantity
}

func confirmInput(customerID uuid.UUID) ConfirmInput {
	return ConfirmInput{
		CustomerID:     customerID,
		DeliveryMethod: enums.DeliveryMethodHome,
		PaymentMethod:  enums.PaymentMethodCashOnDelivery,
	}
}

func TestConfirmOrderHappyPath(t *testing.T) {
	svc, db := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()
	p := seedProductWithStock(t, db, "P", "10.00", 5)
	q := seedProductWithStock(t, db, "Q", "5.00", 1)
	seeded := seedCart(t, db, customer, map[uuid.UUID]int{p.ID: 2, q.ID: 1})

	result, err := svc.ConfirmOrder(ctx, confirmInput(customer))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !result.Total.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("expected total 25.00, got %s", result.Total)
	}
	if got := stockFor(t, db, p.ID); got != 3 {
		t.Fatalf("expected stock 3 for P, got %d", got)
	}
	if got := stockFor(t, db, q.ID); got != 0 {
		t.Fatalf("expected stock 0 for Q, got %d", got)
	}

	order, err := svc.Get(ctx, result.OrderID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if len(order.Details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(order.Details))
	}
	sum := decimal.Zero
	for _, detail := range order.Details {
		sum = sum.Add(detail.Subtotal)
	}
	if !sum.Equal(order.Total) {
		t.Fatalf("detail subtotals %s do not match total %s", sum, order.Total)
	}

	var closed models.Cart
	if err := db.First(&closed, "id = ?", seeded.ID).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if closed.Status != enums.CartStatusOrdered {
		t.Fatalf("expected ordered cart, got %s", closed.Status)
	}
}

func TestConfirmOrderEmptyCart(t *testing.T) {
	svc, db := newTestEnv(t)
	ctx := context.Background()

	// No cart at all.
	_, err := svc.ConfirmOrder(ctx, confirmInput(uuid.New()))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing cart, got %v", err)
	}

	// A cart with zero items.
	customer := uuid.New()
	seedCart(t, db, customer, nil)
	_, err = svc.ConfirmOrder(ctx, confirmInput(customer))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("empty cart produced %d orders", count)
	}
}

func TestConfirmOrderInsufficientStock(t *testing.T) {
	svc, db := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()
	p := seedProductWithStock(t, db, "P", "10.00", 5)
	q := seedProductWithStock(t, db, "Q", "5.00", 0)
	seedCart(t, db, customer, map[uuid.UUID]int{p.ID: 2, q.ID: 1})

	_, err := svc.ConfirmOrder(ctx, confirmInput(customer))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	if got := stockFor(t, db, p.ID); got != 5 {
		t.Fatalf("stock for P changed to %d on failed confirm", got)
	}
	if got := stockFor(t, db, q.ID); got != 0 {
		t.Fatalf("stock for Q changed to %d on failed confirm", got)
	}
	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed confirm produced %d orders", count)
	}
}

func TestConfirmOrderMissingInventory(t *testing.T) {
	svc, db := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()

	product := &models.Product{ID: uuid.New(), Name: "Ghost", Price: decimal.RequireFromString("9.99")}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	seedCart(t, db, customer, map[uuid.UUID]int{product.ID: 1})

	_, err := svc.ConfirmOrder(ctx, confirmInput(customer))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmOrderValidatesMethods(t *testing.T) {
	svc, _ := newTestEnv(t)
	_, err := svc.ConfirmOrder(context.Background(), ConfirmInput{
		CustomerID:     uuid.New(),
		DeliveryMethod: enums.DeliveryMethod("teleport"),
		PaymentMethod:  enums.PaymentMethodCashOnDelivery,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
