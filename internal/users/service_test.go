package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/config"
	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(newTestDB(t))
	svc, err := NewService(repo, testPasswordConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestCreateHashesPasswordAndNormalizesEmail(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Email:     "  Ana@Example.COM ",
		Password:  "secret-pw",
		FirstName: "Ana",
		LastName:  "Lopez",
		Role:      enums.UserRoleSeller,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}

	stored, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.PasswordHash == "secret-pw" || stored.PasswordHash == "" {
		t.Fatalf("password was not hashed: %q", stored.PasswordHash)
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := CreateInput{
		Email:     "dup@example.com",
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      enums.UserRoleCustomer,
	}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, input)
	if err == nil {
		t.Fatal("expected duplicate email to fail")
	}
}

func TestCreateRejectsInvalidRole(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateInput{
		Email:    "x@example.com",
		Password: "pw",
		Role:     enums.UserRole("superuser"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFindByRoleSkipsInactiveUsers(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	active, err := svc.Create(ctx, CreateInput{
		Email: "wm1@example.com", Password: "pw",
		FirstName: "W", LastName: "One",
		Role: enums.UserRoleWarehouseManager,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inactive, err := svc.Create(ctx, CreateInput{
		Email: "wm2@example.com", Password: "pw",
		FirstName: "W", LastName: "Two",
		Role: enums.UserRoleWarehouseManager,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Update(ctx, inactive.ID, map[string]any{"is_active": false}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	managers, err := svc.FindByRole(ctx, enums.UserRoleWarehouseManager)
	if err != nil {
		t.Fatalf("find by role: %v", err)
	}
	if len(managers) != 1 || managers[0].ID != active.ID {
		t.Fatalf("expected only the active manager, got %d rows", len(managers))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Email: "upd@example.com", Password: "pw",
		FirstName: "Old", LastName: "Name",
		Role: enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newName := "New"
	updated, err := svc.Update(ctx, created.ID, UpdateUserDTO{FirstName: &newName})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "New" {
		t.Fatalf("expected first name updated, got %q", updated.FirstName)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = svc.Delete(ctx, created.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
