package promotions

import (
	"context"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
)

// Source adapts the promotions repository for the cart engine. Repo
// errors pass through untouched so callers can still match
// gorm.ErrRecordNotFound.
type Source struct {
	repo Repository
}

// NewSource wraps repo for consumption by other domains.
func NewSource(repo Repository) *Source {
	return &Source{repo: repo}
}

// ActiveOffer resolves a live bundle offer by id. Inactive and deleted
// offers read as not found.
func (s *Source) ActiveOffer(ctx context.Context, id uuid.UUID) (*models.BundleOffer, error) {
	return s.repo.FindActiveOffer(ctx, id)
}
