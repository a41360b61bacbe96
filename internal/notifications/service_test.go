package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

type notifyFixture struct {
	svc  Service
	repo Repository
}

func newNotifyFixture(t *testing.T) *notifyFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := NewRepository(gdb)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &notifyFixture{svc: svc, repo: repo}
}

func (f *notifyFixture) seed(t *testing.T, userID uuid.UUID, title string, createdAt time.Time) uuid.UUID {
	t.Helper()
	row := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   "m",
		Type:      enums.NotificationTypeSystem,
		CreatedAt: createdAt,
	}
	if err := f.repo.Create(context.Background(), row); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return row.ID
}

func TestNotifyAndList(t *testing.T) {
	ctx := context.Background()
	f := newNotifyFixture(t)
	userID := uuid.New()

	err := f.svc.Notify(ctx, userID, "Order shipped", "Your order is on the way", enums.NotificationTypeOrderStatus)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	result, err := f.svc.List(ctx, ListParams{UserID: userID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Title != "Order shipped" {
		t.Fatalf("unexpected items %+v", result.Items)
	}
	if result.Items[0].Read {
		t.Fatal("new notification must start unread")
	}
	if result.Cursor != "" {
		t.Fatal("single page must not return a cursor")
	}
}

func TestNotifyValidation(t *testing.T) {
	ctx := context.Background()
	f := newNotifyFixture(t)

	if err := f.svc.Notify(ctx, uuid.Nil, "t", "m", enums.NotificationTypeSystem); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for nil user, got %v", err)
	}
	if err := f.svc.Notify(ctx, uuid.New(), "  ", "m", enums.NotificationTypeSystem); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for blank title, got %v", err)
	}
	if err := f.svc.Notify(ctx, uuid.New(), "t", "m", enums.NotificationType("junk")); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for unknown type, got %v", err)
	}
}

func TestListPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newNotifyFixture(t)
	userID := uuid.New()

	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	f.seed(t, userID, "oldest", base)
	f.seed(t, userID, "middle", base.Add(time.Minute))
	f.seed(t, userID, "newest", base.Add(2*time.Minute))
	f.seed(t, uuid.New(), "other user", base.Add(3*time.Minute))

	page, err := f.svc.List(ctx, ListParams{UserID: userID, Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Title != "newest" || page.Items[1].Title != "middle" {
		t.Fatalf("unexpected first page %+v", page.Items)
	}
	if page.Cursor == "" {
		t.Fatal("expected cursor for second page")
	}

	rest, err := f.svc.List(ctx, ListParams{UserID: userID, Limit: 2, Cursor: page.Cursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(rest.Items) != 1 || rest.Items[0].Title != "oldest" {
		t.Fatalf("unexpected second page %+v", rest.Items)
	}
	if rest.Cursor != "" {
		t.Fatal("last page must not return a cursor")
	}
}

func TestListRejectsGarbageCursor(t *testing.T) {
	ctx := context.Background()
	f := newNotifyFixture(t)

	_, err := f.svc.List(ctx, ListParams{UserID: uuid.New(), Cursor: "???"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	ctx := context.Background()
	f := newNotifyFixture(t)
	owner := uuid.New()
	stranger := uuid.New()

	id := f.seed(t, owner, "hello", time.Now().UTC())

	err := f.svc.MarkRead(ctx, stranger, id)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("stranger must see not found, got %v", err)
	}

	if err := f.svc.MarkRead(ctx, owner, id); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// already read is not an error
	if err := f.svc.MarkRead(ctx, owner, id); err != nil {
		t.Fatalf("second mark read: %v", err)
	}

	unread, err := f.svc.List(ctx, ListParams{UserID: owner, UnreadOnly: true})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread.Items) != 0 {
		t.Fatalf("expected no unread rows, got %d", len(unread.Items))
	}
}

func TestMarkAllRead(t *testing.T) {
	ctx := context.Background()
	f := newNotifyFixture(t)
	userID := uuid.New()

	now := time.Now().UTC()
	f.seed(t, userID, "a", now)
	f.seed(t, userID, "b", now.Add(time.Second))
	f.seed(t, uuid.New(), "other", now)

	count, err := f.svc.MarkAllRead(ctx, userID)
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows updated, got %d", count)
	}

	count, err = f.svc.MarkAllRead(ctx, userID)
	if err != nil {
		t.Fatalf("idempotent mark all: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 on second run, got %d", count)
	}
}
