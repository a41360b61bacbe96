package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
)

// Source adapts the catalog repository for the cart engine and the
// partner settlement run. Repo errors pass through untouched so callers
// can still match gorm.ErrRecordNotFound.
type Source struct {
	repo Repository
}

// NewSource wraps repo for consumption by other domains.
func NewSource(repo Repository) *Source {
	return &Source{repo: repo}
}

func (s *Source) FindActive(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindProduct(ctx, id)
}

func (s *Source) ActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return s.repo.FindProductsByIDs(ctx, ids)
}

func (s *Source) UnsettledByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Product, error) {
	return s.repo.UnsettledProductsByAdmin(ctx, adminID)
}

func (s *Source) MarkSettled(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return s.repo.MarkProductsSettled(ctx, ids)
}

// DecrementStock tries to take stock for a checkout line. Returns the
// number of rows updated; zero means the guard rejected the decrement.
func (s *Source) DecrementStock(ctx context.Context, id uuid.UUID, by int) (int64, error) {
	return s.repo.DecrementStock(ctx, id, by)
}
