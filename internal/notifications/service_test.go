package notifications

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merkadolite/merkadolite-backend/pkg/db/models"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

type stubUserFinder struct {
	known map[uuid.UUID]bool
}

func (s *stubUserFinder) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.known[id] {
		return &models.User{ID: id}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(conn)
}

func newTestService(t *testing.T, repo Repository, finder userFinder) Service {
	t.Helper()
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: buf})
	svc, err := NewService(repo, finder, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSendPersistsForKnownRecipient(t *testing.T) {
	repo := newTestRepo(t)
	userID := uuid.New()
	svc := newTestService(t, repo, &stubUserFinder{known: map[uuid.UUID]bool{userID: true}})
	ctx := context.Background()

	if err := svc.Send(ctx, userID, "stock is low"); err != nil {
		t.Fatalf("send: %v", err)
	}

	result, err := svc.List(ctx, ListParams{UserID: userID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Message != "stock is low" {
		t.Fatalf("unexpected items %+v", result.Items)
	}
}

func TestSendSwallowsUnknownRecipient(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestService(t, repo, &stubUserFinder{})
	ctx := context.Background()

	unknown := uuid.New()
	if err := svc.Send(ctx, unknown, "hello"); err != nil {
		t.Fatalf("expected missing recipient to be swallowed, got %v", err)
	}

	result, err := svc.List(ctx, ListParams{UserID: unknown})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 0 {
		t.Fatalf("expected no notifications, got %d", len(result.Items))
	}
}

func TestMarkReadFlipsOnce(t *testing.T) {
	repo := newTestRepo(t)
	userID := uuid.New()
	svc := newTestService(t, repo, &stubUserFinder{known: map[uuid.UUID]bool{userID: true}})
	ctx := context.Background()

	if err := svc.Send(ctx, userID, "first"); err != nil {
		t.Fatalf("send: %v", err)
	}
	result, err := svc.List(ctx, ListParams{UserID: userID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	id := result.Items[0].ID

	if err := svc.MarkRead(ctx, userID, id); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// second mark is a no-op but still resolves the row
	if err := svc.MarkRead(ctx, userID, id); err != nil {
		t.Fatalf("second mark read: %v", err)
	}

	err = svc.MarkRead(ctx, userID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing notification, got %v", err)
	}
}

func TestMarkAllReadCountsOnlyUnread(t *testing.T) {
	repo := newTestRepo(t)
	userID := uuid.New()
	svc := newTestService(t, repo, &stubUserFinder{known: map[uuid.UUID]bool{userID: true}})
	ctx := context.Background()

	for _, msg := range []string{"a", "b", "c"} {
		if err := svc.Send(ctx, userID, msg); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	count, err := svc.MarkAllRead(ctx, userID)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 marked, got %d", count)
	}

	count, err = svc.MarkAllRead(ctx, userID)
	if err != nil {
		t.Fatalf("mark all read again: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 on second pass, got %d", count)
	}
}

func TestDeleteOlderThanRemovesOnlyReadRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	old := &models.Notification{UserID: userID, Message: "old"}
	if err := repo.Create(ctx, old); err != nil {
		t.Fatalf("create: %v", err)
	}
	unreadOld := &models.Notification{UserID: userID, Message: "unread old"}
	if err := repo.Create(ctx, unreadOld); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.MarkRead(ctx, userID, old.ID, time.Now().UTC()); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected only the read row deleted, got %d", deleted)
	}
}
