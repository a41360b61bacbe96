package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	SaveItem(ctx context.Context, item *models.CartItem) error
	SaveItems(ctx context.Context, items []models.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error)
	DeleteAllItems(ctx context.Context, cartID uuid.UUID) error
	ItemsByBundleGroup(ctx context.Context, cartID, groupID uuid.UUID) ([]models.CartItem, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// FindOrCreateByUser loads the user's cart with its lines, creating an
// empty one on first touch.
func (r *repositoryImpl) FindOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Cart{ID: uuid.New(), UserID: userID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		// lost the lazy-create race; reload the winner
		if existing, findErr := r.FindByUser(ctx, userID); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	created.Items = []models.CartItem{}
	return created, nil
}

func (r *repositoryImpl) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at ASC") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repositoryImpl) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repositoryImpl) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repositoryImpl) SaveItems(ctx context.Context, items []models.CartItem) error {
	for i := range items {
		if err := r.db.WithContext(ctx).Save(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repositoryImpl) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteAllItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

func (r *repositoryImpl) ItemsByBundleGroup(ctx context.Context, cartID, groupID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND bundle_group_id = ?", cartID, groupID).
		Order("added_at ASC").
		Find(&rows).Error
	return rows, err
}
