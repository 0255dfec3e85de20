package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/merkadolite/merkadolite-backend/internal/inventory"
	"github.com/merkadolite/merkadolite-backend/internal/notifications"
	"github.com/merkadolite/merkadolite-backend/internal/orders"
	"github.com/merkadolite/merkadolite-backend/internal/promotions"
	"github.com/merkadolite/merkadolite-backend/internal/users"
	pkgAuth "github.com/merkadolite/merkadolite-backend/pkg/auth"
	"github.com/merkadolite/merkadolite-backend/pkg/config"
	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) GetActiveCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New(), CustomerID: customerID, Status: enums.CartStatusActive}, nil
}

func (stubCartService) AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) ConfirmOrder(ctx context.Context, input orders.ConfirmInput) (*orders.Confirmation, error) {
	panic("unimplemented")
}

func (stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	return []models.Order{}, nil
}

type stubInventoryService struct{}

func (stubInventoryService) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*models.Inventory, error) {
	panic("unimplemented")
}

func (stubInventoryService) SweepExpirations(ctx context.Context) (*inventory.SweepSummary, error) {
	panic("unimplemented")
}

func (stubInventoryService) List(ctx context.Context) ([]models.Inventory, error) {
	return []models.Inventory{}, nil
}

func (stubInventoryService) GetByProduct(ctx context.Context, productID uuid.UUID) (*models.Inventory, error) {
	panic("unimplemented")
}

func (stubInventoryService) ListLowStock(ctx context.Context) ([]models.Inventory, error) {
	return []models.Inventory{}, nil
}

func (stubInventoryService) ListByStatus(ctx context.Context, status enums.InventoryStatus) ([]models.Inventory, error) {
	return []models.Inventory{}, nil
}

type stubPromotionsService struct{}

func (stubPromotionsService) GenerateAuto(ctx context.Context) (int, error) {
	return 0, nil
}

func (stubPromotionsService) Create(ctx context.Context, input promotions.CreateInput) (*models.Promotion, error) {
	panic("unimplemented")
}

func (stubPromotionsService) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	panic("unimplemented")
}

func (stubPromotionsService) List(ctx context.Context) ([]models.Promotion, error) {
	return []models.Promotion{}, nil
}

func (stubPromotionsService) Update(ctx context.Context, id uuid.UUID, input promotions.UpdateInput) (*models.Promotion, error) {
	panic("unimplemented")
}

func (stubPromotionsService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubDeliveriesService struct{}

func (stubDeliveriesService) Dispatch(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	panic("unimplemented")
}

func (stubDeliveriesService) Deliver(ctx context.Context, orderID, driverID uuid.UUID) (*models.Delivery, error) {
	panic("unimplemented")
}

func (stubDeliveriesService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	panic("unimplemented")
}

func (stubDeliveriesService) ListPending(ctx context.Context) ([]models.Delivery, error) {
	return []models.Delivery{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Send(ctx context.Context, userID uuid.UUID, message string) error {
	return nil
}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubUsersService struct{}

func (stubUsersService) Create(ctx context.Context, input users.CreateInput) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUsersService) Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUsersService) List(ctx context.Context) ([]users.UserDTO, error) {
	return []users.UserDTO{}, nil
}

func (stubUsersService) Update(ctx context.Context, id uuid.UUID, input users.UpdateUserDTO) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUsersService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubUsersService) FindByRole(ctx context.Context, role enums.UserRole) ([]models.User, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "merkadolite",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg,
		Dependencies{DB: stubPinger{}, Redis: stubPinger{}},
		Services{
			Cart:          stubCartService{},
			Orders:        stubOrdersService{},
			Inventory:     stubInventoryService{},
			Promotions:    stubPromotionsService{},
			Deliveries:    stubDeliveriesService{},
			Notifications: stubNotificationsService{},
			Users:         stubUsersService{},
		})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for own orders got %d", resp.Code)
	}
}

func TestInventoryGroupRequiresStaffRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/", nil)
	manager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleWarehouseManager))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for warehouse manager got %d", resp.Code)
	}
}

func TestPromotionWritesRequireSellerOrAdmin(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodPost, "/api/v1/promotions/auto-generate", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	seller := httptest.NewRequest(http.MethodPost, "/api/v1/promotions/auto-generate", nil)
	seller.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleSeller))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, seller)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for seller got %d", resp.Code)
	}

	reader := httptest.NewRequest(http.MethodGet, "/api/v1/promotions/", nil)
	reader.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, reader)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for promotion read got %d", resp.Code)
	}
}

func TestUsersGroupRequiresAdministrator(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	seller := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	seller.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleSeller))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, seller)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdministrator))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for administrator got %d", resp.Code)
	}
}
