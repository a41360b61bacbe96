package promotions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

// Table names published after promotion mutations.
const (
	TablePromotions   = "promotions"
	TableBundleOffers = "bundle_offers"
)

// ChangeBroadcaster notifies connected clients that tables changed.
type ChangeBroadcaster interface {
	Broadcast(ctx context.Context, tables ...string)
}

// Service manages storefront promotions and bundle offers.
type Service interface {
	ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error)
	CreatePromotion(ctx context.Context, input PromotionInput) (*models.Promotion, error)
	UpdatePromotion(ctx context.Context, id uuid.UUID, input PromotionInput) (*models.Promotion, error)
	DeletePromotion(ctx context.Context, id uuid.UUID) error

	ListOffers(ctx context.Context, activeOnly bool) ([]models.BundleOffer, error)
	CreateOffer(ctx context.Context, input OfferInput) (*models.BundleOffer, error)
	UpdateOffer(ctx context.Context, id uuid.UUID, input OfferInput) (*models.BundleOffer, error)
	DeleteOffer(ctx context.Context, id uuid.UUID) error
}

// PromotionInput carries the writable promotion fields.
type PromotionInput struct {
	Title    string     `json:"title" validate:"required"`
	Type     string     `json:"type" validate:"required"`
	Image    *string    `json:"image"`
	LinkURL  *string    `json:"link_url"`
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

// OfferInput carries the writable bundle offer fields.
type OfferInput struct {
	Title              string          `json:"title" validate:"required"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	ProductIDs         []uuid.UUID     `json:"product_ids" validate:"required,min=1"`
	Active             bool            `json:"active"`
}

type service struct {
	repo      Repository
	broadcast ChangeBroadcaster
	now       func() time.Time
}

// NewService wires promotion dependencies. broadcast may be nil in tests.
func NewService(repo Repository, broadcast ChangeBroadcaster) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "promotions repository required")
	}
	return &service{
		repo:      repo,
		broadcast: broadcast,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) publish(ctx context.Context, table string) {
	if s.broadcast != nil {
		s.broadcast.Broadcast(ctx, table)
	}
}

func (s *service) ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error) {
	var activeAt *time.Time
	if activeOnly {
		at := s.now()
		activeAt = &at
	}
	rows, err := s.repo.ListPromotions(ctx, activeAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	return rows, nil
}

func validatePromotionInput(input *PromotionInput) (enums.PromotionType, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "promotion title required")
	}
	kind, err := enums.ParsePromotionType(input.Type)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "ends_at precedes starts_at")
	}
	return kind, nil
}

func (s *service) CreatePromotion(ctx context.Context, input PromotionInput) (*models.Promotion, error) {
	kind, err := validatePromotionInput(&input)
	if err != nil {
		return nil, err
	}
	row := &models.Promotion{
		ID:       uuid.New(),
		Title:    input.Title,
		Type:     kind,
		Image:    input.Image,
		LinkURL:  input.LinkURL,
		Active:   input.Active,
		StartsAt: input.StartsAt,
		EndsAt:   input.EndsAt,
	}
	if err := s.repo.CreatePromotion(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	s.publish(ctx, TablePromotions)
	return row, nil
}

func (s *service) UpdatePromotion(ctx context.Context, id uuid.UUID, input PromotionInput) (*models.Promotion, error) {
	kind, err := validatePromotionInput(&input)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.FindPromotion(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find promotion")
	}
	row.Title = input.Title
	row.Type = kind
	row.Image = input.Image
	row.LinkURL = input.LinkURL
	row.Active = input.Active
	row.StartsAt = input.StartsAt
	row.EndsAt = input.EndsAt
	if err := s.repo.SavePromotion(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promotion")
	}
	s.publish(ctx, TablePromotions)
	return row, nil
}

func (s *service) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeletePromotion(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promotion")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
	}
	s.publish(ctx, TablePromotions)
	return nil
}

func (s *service) ListOffers(ctx context.Context, activeOnly bool) ([]models.BundleOffer, error) {
	rows, err := s.repo.ListOffers(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bundle offers")
	}
	return rows, nil
}

func validateOfferInput(input *OfferInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer title required")
	}
	if input.DiscountPercentage.LessThanOrEqual(decimal.Zero) ||
		input.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be within (0, 100]")
	}
	if len(input.ProductIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer needs at least one product")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.ProductIDs))
	for _, id := range input.ProductIDs {
		if id == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "offer product id must not be empty")
		}
		if _, dup := seen[id]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "offer product ids must be unique")
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *service) CreateOffer(ctx context.Context, input OfferInput) (*models.BundleOffer, error) {
	if err := validateOfferInput(&input); err != nil {
		return nil, err
	}
	row := &models.BundleOffer{
		ID:                 uuid.New(),
		Title:              input.Title,
		DiscountPercentage: input.DiscountPercentage,
		ProductIDs:         input.ProductIDs,
		Active:             input.Active,
	}
	if err := s.repo.CreateOffer(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bundle offer")
	}
	s.publish(ctx, TableBundleOffers)
	return row, nil
}

func (s *service) UpdateOffer(ctx context.Context, id uuid.UUID, input OfferInput) (*models.BundleOffer, error) {
	if err := validateOfferInput(&input); err != nil {
		return nil, err
	}
	row, err := s.repo.FindOffer(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find bundle offer")
	}
	row.Title = input.Title
	row.DiscountPercentage = input.DiscountPercentage
	row.ProductIDs = input.ProductIDs
	row.Active = input.Active
	if err := s.repo.SaveOffer(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bundle offer")
	}
	s.publish(ctx, TableBundleOffers)
	return row, nil
}

func (s *service) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeleteOffer(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete bundle offer")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "bundle offer not found")
	}
	s.publish(ctx, TableBundleOffers)
	return nil
}
