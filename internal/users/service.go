package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

// Service defines account lookup and provisioning operations.
type Service interface {
	FindOrCreate(ctx context.Context, email, name string, picture *string) (*models.User, error)
	GetActive(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo Repository
}

// NewService wires users dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo}, nil
}

// FindOrCreate returns the account for the email, provisioning it on
// first login. Soft-deleted accounts are returned as-is; callers decide
// whether a deleted account may proceed.
func (s *service) FindOrCreate(ctx context.Context, email, name string, picture *string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}

	created := &models.User{ID: uuid.New(), Email: email, Name: name, Picture: picture}
	if err := s.repo.Create(ctx, created); err != nil {
		if db.IsUniqueViolation(err, "") {
			// Lost a first-login race; the winner's row is authoritative.
			if existing, findErr := s.repo.FindByEmail(ctx, email); findErr == nil {
				return existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return created, nil
}

// GetActive returns the account only when it exists and is not
// soft-deleted.
func (s *service) GetActive(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}
	if user.IsDeleted() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}
