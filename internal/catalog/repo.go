package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
)

// Repository exposes persistence helpers for the catalog tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListProducts(ctx context.Context, params ProductFilter) ([]models.Product, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	SaveProduct(ctx context.Context, product *models.Product) error
	SoftDeleteProduct(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
	DecrementStock(ctx context.Context, id uuid.UUID, by int) (int64, error)
	UnsettledProductsByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Product, error)
	MarkProductsSettled(ctx context.Context, ids []uuid.UUID) (int64, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	SaveCategory(ctx context.Context, category *models.Category) error
	SoftDeleteCategory(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)

	ListCarBrands(ctx context.Context) ([]models.CarBrand, error)
	CreateCarBrand(ctx context.Context, brand *models.CarBrand) error
	SaveCarBrand(ctx context.Context, brand *models.CarBrand) error
	SoftDeleteCarBrand(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)

	ListCarModels(ctx context.Context, brandID *uuid.UUID) ([]models.CarModel, error)
	CreateCarModel(ctx context.Context, model *models.CarModel) error
	SaveCarModel(ctx context.Context, model *models.CarModel) error
	SoftDeleteCarModel(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)

	ListProductBrands(ctx context.Context) ([]models.ProductBrand, error)
	CreateProductBrand(ctx context.Context, brand *models.ProductBrand) error
	SaveProductBrand(ctx context.Context, brand *models.ProductBrand) error
	SoftDeleteProductBrand(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
}

// ProductFilter narrows public product listings.
type ProductFilter struct {
	CategoryID     *uuid.UUID
	ProductBrandID *uuid.UUID
	IncludeHidden  bool
	Search         string
	Limit          int
	Offset         int
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ListProducts(ctx context.Context, params ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("deleted_at IS NULL")
	if !params.IncludeHidden {
		query = query.Where("hidden = ?", false)
	}
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if params.ProductBrandID != nil {
		query = query.Where("product_brand_id = ?", *params.ProductBrandID)
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", like, like)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	var rows []models.Product
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("id IN ? AND deleted_at IS NULL", ids).Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repositoryImpl) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repositoryImpl) SoftDeleteProduct(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", now)
	return result.RowsAffected, result.Error
}

// DecrementStock subtracts sold quantity without going below zero.
func (r *repositoryImpl) DecrementStock(ctx context.Context, id uuid.UUID, by int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, by).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", by))
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) UnsettledProductsByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("added_by_admin_id = ? AND settled = ? AND deleted_at IS NULL", adminID, false).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) MarkProductsSettled(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id IN ?", ids).
		UpdateColumn("settled", true)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("sort_order ASC, name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repositoryImpl) SaveCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *repositoryImpl) SoftDeleteCategory(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", now)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListCarBrands(ctx context.Context) ([]models.CarBrand, error) {
	var rows []models.CarBrand
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateCarBrand(ctx context.Context, brand *models.CarBrand) error {
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *repositoryImpl) SaveCarBrand(ctx context.Context, brand *models.CarBrand) error {
	return r.db.WithContext(ctx).Save(brand).Error
}

func (r *repositoryImpl) SoftDeleteCarBrand(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CarBrand{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", now)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListCarModels(ctx context.Context, brandID *uuid.UUID) ([]models.CarModel, error) {
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if brandID != nil {
		query = query.Where("car_brand_id = ?", *brandID)
	}
	var rows []models.CarModel
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateCarModel(ctx context.Context, model *models.CarModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *repositoryImpl) SaveCarModel(ctx context.Context, model *models.CarModel) error {
	return r.db.WithContext(ctx).Save(model).Error
}

func (r *repositoryImpl) SoftDeleteCarModel(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CarModel{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", now)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListProductBrands(ctx context.Context) ([]models.ProductBrand, error) {
	var rows []models.ProductBrand
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateProductBrand(ctx context.Context, brand *models.ProductBrand) error {
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *repositoryImpl) SaveProductBrand(ctx context.Context, brand *models.ProductBrand) error {
	return r.db.WithContext(ctx).Save(brand).Error
}

func (r *repositoryImpl) SoftDeleteProductBrand(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductBrand{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", now)
	return result.RowsAffected, result.Error
}
