package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
)

// Repository covers promotion and bundle offer persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListPromotions(ctx context.Context, activeAt *time.Time) ([]models.Promotion, error)
	FindPromotion(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	CreatePromotion(ctx context.Context, promotion *models.Promotion) error
	SavePromotion(ctx context.Context, promotion *models.Promotion) error
	SoftDeletePromotion(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)

	ListOffers(ctx context.Context, activeOnly bool) ([]models.BundleOffer, error)
	FindOffer(ctx context.Context, id uuid.UUID) (*models.BundleOffer, error)
	FindActiveOffer(ctx context.Context, id uuid.UUID) (*models.BundleOffer, error)
	CreateOffer(ctx context.Context, offer *models.BundleOffer) error
	SaveOffer(ctx context.Context, offer *models.BundleOffer) error
	SoftDeleteOffer(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a promotions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// ListPromotions returns live rows. With activeAt set, only promotions
// whose schedule covers that instant are returned.
func (r *repositoryImpl) ListPromotions(ctx context.Context, activeAt *time.Time) ([]models.Promotion, error) {
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if activeAt != nil {
		query = query.
			Where("active = ?", true).
			Where("starts_at IS NULL OR starts_at <= ?", *activeAt).
			Where("ends_at IS NULL OR ends_at >= ?", *activeAt)
	}
	var rows []models.Promotion
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindPromotion(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var row models.Promotion
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) CreatePromotion(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Create(promotion).Error
}

func (r *repositoryImpl) SavePromotion(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Save(promotion).Error
}

func (r *repositoryImpl) SoftDeletePromotion(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", now)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListOffers(ctx context.Context, activeOnly bool) ([]models.BundleOffer, error) {
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.BundleOffer
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindOffer(ctx context.Context, id uuid.UUID) (*models.BundleOffer, error) {
	var row models.BundleOffer
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) FindActiveOffer(ctx context.Context, id uuid.UUID) (*models.BundleOffer, error) {
	var row models.BundleOffer
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ? AND deleted_at IS NULL", id, true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) CreateOffer(ctx context.Context, offer *models.BundleOffer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *repositoryImpl) SaveOffer(ctx context.Context, offer *models.BundleOffer) error {
	return r.db.WithContext(ctx).Save(offer).Error
}

func (r *repositoryImpl) SoftDeleteOffer(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BundleOffer{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", now)
	return result.RowsAffected, result.Error
}
