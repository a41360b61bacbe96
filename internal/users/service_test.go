package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(newTestDB(t))
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestFindOrCreateProvisionsOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first, err := svc.FindOrCreate(ctx, "Driver@Example.com", "Driver", nil)
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	if first.Email != "driver@example.com" {
		t.Fatalf("email not normalized: %s", first.Email)
	}

	second, err := svc.FindOrCreate(ctx, "driver@example.com", "Ignored", nil)
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same account, got %s vs %s", second.ID, first.ID)
	}
	if second.Name != "Driver" {
		t.Fatalf("existing profile must not be overwritten, got %s", second.Name)
	}
}

func TestGetActiveRejectsSoftDeleted(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	user, err := svc.FindOrCreate(ctx, "gone@example.com", "Gone", nil)
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if _, err := repo.SoftDeleteByEmail(ctx, user.Email, time.Now().UTC()); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	_, err = svc.GetActive(ctx, user.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for deleted user, got %v", err)
	}
}

func TestGetActiveUnknownID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.GetActive(ctx, uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
