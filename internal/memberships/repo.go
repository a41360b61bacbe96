package memberships

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
)

// Repository exposes persistence helpers for the three membership
// tables that grant elevated roles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ActivePartnerByEmail(ctx context.Context, email string) (*models.Partner, error)
	ActiveAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	ActiveSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error)

	ListPartners(ctx context.Context) ([]models.Partner, error)
	FindPartner(ctx context.Context, id uuid.UUID) (*models.Partner, error)
	CreatePartner(ctx context.Context, partner *models.Partner) error
	SavePartner(ctx context.Context, partner *models.Partner) error
	SoftDeletePartner(ctx context.Context, id uuid.UUID, now time.Time) (*models.Partner, error)

	ListAdmins(ctx context.Context) ([]models.Admin, error)
	FindAdmin(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	SaveAdmin(ctx context.Context, admin *models.Admin) error
	SoftDeleteAdmin(ctx context.Context, id uuid.UUID, now time.Time) (*models.Admin, error)
	IncrementAdminRevenue(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
	FindSubscriber(ctx context.Context, id uuid.UUID) (*models.Subscriber, error)
	CreateSubscriber(ctx context.Context, subscriber *models.Subscriber) error
	SoftDeleteSubscriber(ctx context.Context, id uuid.UUID, now time.Time) (*models.Subscriber, error)

	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a memberships repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ActivePartnerByEmail(ctx context.Context, email string) (*models.Partner, error) {
	var row models.Partner
	if err := r.db.WithContext(ctx).Where("email = ? AND deleted_at IS NULL", email).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) ActiveAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var row models.Admin
	if err := r.db.WithContext(ctx).Where("email = ? AND deleted_at IS NULL", email).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) ActiveSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var row models.Subscriber
	if err := r.db.WithContext(ctx).Where("email = ? AND deleted_at IS NULL", email).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) ListPartners(ctx context.Context) ([]models.Partner, error) {
	var rows []models.Partner
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindPartner(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	var row models.Partner
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) CreatePartner(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Create(partner).Error
}

func (r *repositoryImpl) SavePartner(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Save(partner).Error
}

func (r *repositoryImpl) SoftDeletePartner(ctx context.Context, id uuid.UUID, now time.Time) (*models.Partner, error) {
	row, err := r.FindPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	row.DeletedAt = &now
	if err := r.db.WithContext(ctx).Model(row).UpdateColumn("deleted_at", now).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repositoryImpl) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	var rows []models.Admin
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindAdmin(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	var row models.Admin
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *repositoryImpl) SaveAdmin(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Save(admin).Error
}

func (r *repositoryImpl) SoftDeleteAdmin(ctx context.Context, id uuid.UUID, now time.Time) (*models.Admin, error) {
	row, err := r.FindAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	row.DeletedAt = &now
	if err := r.db.WithContext(ctx).Model(row).UpdateColumn("deleted_at", now).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repositoryImpl) IncrementAdminRevenue(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("id = ?", id).
		UpdateColumn("revenue", gorm.Expr("revenue + ?", amount)).Error
}

func (r *repositoryImpl) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	var rows []models.Subscriber
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindSubscriber(ctx context.Context, id uuid.UUID) (*models.Subscriber, error) {
	var row models.Subscriber
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) CreateSubscriber(ctx context.Context, subscriber *models.Subscriber) error {
	return r.db.WithContext(ctx).Create(subscriber).Error
}

func (r *repositoryImpl) SoftDeleteSubscriber(ctx context.Context, id uuid.UUID, now time.Time) (*models.Subscriber, error) {
	row, err := r.FindSubscriber(ctx, id)
	if err != nil {
		return nil, err
	}
	row.DeletedAt = &now
	if err := r.db.WithContext(ctx).Model(row).UpdateColumn("deleted_at", now).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repositoryImpl) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	return r.db.WithContext(ctx).Create(settlement).Error
}
