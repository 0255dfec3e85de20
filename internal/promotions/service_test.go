package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/config"
	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
)

type gormExpiringLister struct {
	db *gorm.DB
}

func (l *gormExpiringLister) ListByStatus(ctx context.Context, status enums.InventoryStatus) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := l.db.WithContext(ctx).
		Preload("Product").
		Where("status = ?", status).
		Find(&rows).Error
	return rows, err
}

type stubRoleLister struct {
	byRole map[enums.UserRole][]models.User
}

func (s *stubRoleLister) FindByRole(_ context.Context, role enums.UserRole) ([]models.User, error) {
	return s.byRole[role], nil
}

type stubNotifier struct {
	messages []string
}

func (s *stubNotifier) Send(_ context.Context, _ uuid.UUID, message string) error {
	s.messages = append(s.messages, message)
	return nil
}

type testEnv struct {
	svc      Service
	db       *gorm.DB
	notifier *stubNotifier
	roles    *stubRoleLister
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:promotions_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Inventory{}, &models.Promotion{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	roles := &stubRoleLister{byRole: map[enums.UserRole][]models.User{}}
	notifier := &stubNotifier{}
	cfg := config.PromoConfig{DefaultDiscountPercent: 20, DefaultDurationDays: 7}

	svc, err := NewService(NewRepository(conn), &gormExpiringLister{db: conn}, roles, notifier, cfg, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testEnv{svc: svc, db: conn, notifier: notifier, roles: roles}
}

func seedExpiring(t *testing.T, db *gorm.DB, name string, status enums.InventoryStatus) *models.Inventory {
	t.Helper()
	product := &models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.RequireFromString("5.00"),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	row := &models.Inventory{ProductID: product.ID, Quantity: 10, Status: status}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return row
}

func TestGenerateAutoCreatesPercentagePromotions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.roles.byRole[enums.UserRoleAdministrator] = []models.User{{ID: uuid.New()}}

	seedExpiring(t, env.db, "Yogurt", enums.InventoryStatusExpiringSoon)
	seedExpiring(t, env.db, "Cheese", enums.InventoryStatusExpiringSoon)
	seedExpiring(t, env.db, "Honey", enums.InventoryStatusNormal)

	count, err := env.svc.GenerateAuto(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 promotions, got %d", count)
	}

	rows, err := env.svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 persisted promotions, got %d", len(rows))
	}
	for _, row := range rows {
		if !row.IsAuto || row.DiscountType != enums.DiscountTypePercentage {
			t.Fatalf("unexpected promotion %+v", row)
		}
		if !row.Value.Equal(decimal.NewFromInt(20)) {
			t.Fatalf("expected 20%% value, got %s", row.Value)
		}
		if len(row.Products) != 1 {
			t.Fatalf("expected one linked product, got %d", len(row.Products))
		}
		if got := row.EndDate.Sub(row.StartDate); got != 7*24*time.Hour {
			t.Fatalf("expected 7-day window, got %s", got)
		}
	}
	if len(env.notifier.messages) != 2 {
		t.Fatalf("expected 2 admin notifications, got %d", len(env.notifier.messages))
	}
}

func TestGenerateAutoSkipsProductsAlreadyCovered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedExpiring(t, env.db, "Yogurt", enums.InventoryStatusExpiringSoon)

	first, err := env.svc.GenerateAuto(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected 1 promotion, got %d", first)
	}

	second, err := env.svc.GenerateAuto(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second != 0 {
		t.Fatalf("second run created %d duplicates", second)
	}
}

func TestStatusFor(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  enums.PromotionStatus
	}{
		{"before window", now.AddDate(0, 0, 1), now.AddDate(0, 0, 5), enums.PromotionStatusScheduled},
		{"inside window", now.AddDate(0, 0, -1), now.AddDate(0, 0, 5), enums.PromotionStatusActive},
		{"after window", now.AddDate(0, 0, -10), now.AddDate(0, 0, -1), enums.PromotionStatusExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusFor(now, tc.start, tc.end); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCreateManualPromotion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	row := seedExpiring(t, env.db, "Rice", enums.InventoryStatusNormal)

	_, err := env.svc.Create(ctx, CreateInput{
		DiscountType: enums.DiscountType("half-off"),
		Value:        decimal.NewFromInt(10),
		StartDate:    time.Now(),
		EndDate:      time.Now().AddDate(0, 0, 1),
		ProductIDs:   []uuid.UUID{row.ProductID},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	start := time.Now().UTC().AddDate(0, 0, -1)
	created, err := env.svc.Create(ctx, CreateInput{
		DiscountType: enums.DiscountTypeFixed,
		Value:        decimal.RequireFromString("2.50"),
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 14),
		ProductIDs:   []uuid.UUID{row.ProductID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != enums.PromotionStatusActive {
		t.Fatalf("expected active status, got %s", created.Status)
	}
	if created.IsAuto {
		t.Fatalf("manual promotion flagged as auto")
	}
}

func TestDeleteMissingPromotion(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.Delete(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
