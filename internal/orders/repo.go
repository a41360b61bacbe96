package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	"github.com/gearhouse/autoparts-backend/pkg/pagination"
)

// Repository exposes persistence helpers for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Find(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
	Save(ctx context.Context, order *models.Order) error
	ChangedSince(ctx context.Context, since *time.Time, userID *uuid.UUID) ([]models.Order, []uuid.UUID, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
}

type listOrdersParams struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
	Limit  int
	Cursor *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) Find(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var row models.Order
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("deleted_at IS NULL")
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// Row caps on the change feed. Rows are ordered by updated_at so a
// capped pull resumes cleanly from the last row's timestamp.
const (
	changeFeedLimit    = 1000
	tombstoneFeedLimit = 500
)

// ChangedSince returns live rows touched after since plus the ids of
// rows deleted after since. A nil since means a full snapshot.
func (r *repositoryImpl) ChangedSince(ctx context.Context, since *time.Time, userID *uuid.UUID) ([]models.Order, []uuid.UUID, error) {
	live := r.db.WithContext(ctx).Model(&models.Order{}).Where("deleted_at IS NULL")
	if userID != nil {
		live = live.Where("user_id = ?", *userID)
	}
	if since != nil {
		live = live.Where("updated_at > ?", *since)
	}

	var rows []models.Order
	if err := live.Order("updated_at ASC").Limit(changeFeedLimit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var deleted []uuid.UUID
	if since != nil {
		tombstones := r.db.WithContext(ctx).Model(&models.Order{}).Where("deleted_at > ?", *since)
		if userID != nil {
			tombstones = tombstones.Where("user_id = ?", *userID)
		}
		if err := tombstones.Order("deleted_at ASC").Limit(tombstoneFeedLimit).Pluck("id", &deleted).Error; err != nil {
			return nil, nil, err
		}
	}
	return rows, deleted, nil
}

func (r *repositoryImpl) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	type bucket struct {
		Status enums.OrderStatus
		Total  int64
	}
	var buckets []bucket
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Where("deleted_at IS NULL").
		Group("status").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.OrderStatus]int64, len(buckets))
	for _, b := range buckets {
		counts[b.Status] = b.Total
	}
	return counts, nil
}
