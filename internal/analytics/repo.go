package analytics

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
)

// AdminRollup aggregates one admin's catalog contribution.
type AdminRollup struct {
	AdminID      uuid.UUID       `json:"admin_id"`
	Name         string          `json:"name"`
	ProductCount int64           `json:"product_count"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// Repository runs the aggregate queries behind the dashboard.
type Repository interface {
	CountOrdersByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	DeliveredRevenue(ctx context.Context) (decimal.Decimal, error)
	AdminRollups(ctx context.Context) ([]AdminRollup, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an analytics repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) CountOrdersByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
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

func (r *repositoryImpl) DeliveredRevenue(ctx context.Context) (decimal.Decimal, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Select("total").
		Where("status = ? AND deleted_at IS NULL", enums.OrderStatusDelivered).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(row.Total)
	}
	return sum, nil
}

func (r *repositoryImpl) AdminRollups(ctx context.Context) ([]AdminRollup, error) {
	var admins []models.Admin
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("name ASC").
		Find(&admins).Error
	if err != nil {
		return nil, err
	}

	rollups := make([]AdminRollup, 0, len(admins))
	for _, admin := range admins {
		var count int64
		err := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("added_by_admin_id = ? AND deleted_at IS NULL", admin.ID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		rollups = append(rollups, AdminRollup{
			AdminID:      admin.ID,
			Name:         admin.Name,
			ProductCount: count,
			Revenue:      admin.Revenue,
		})
	}
	return rollups, nil
}
