package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

// Table names published after catalog mutations.
const (
	TableProducts      = "products"
	TableCategories    = "categories"
	TableCarBrands     = "car_brands"
	TableCarModels     = "car_models"
	TableProductBrands = "product_brands"
)

// ChangeBroadcaster notifies connected clients that tables changed.
// Advisory only; a lost notification just delays the next delta pull.
type ChangeBroadcaster interface {
	Broadcast(ctx context.Context, tables ...string)
}

// Service manages the sellable catalog.
type Service interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListCarBrands(ctx context.Context) ([]models.CarBrand, error)
	CreateCarBrand(ctx context.Context, input NamedInput) (*models.CarBrand, error)
	DeleteCarBrand(ctx context.Context, id uuid.UUID) error

	ListCarModels(ctx context.Context, brandID *uuid.UUID) ([]models.CarModel, error)
	CreateCarModel(ctx context.Context, input CarModelInput) (*models.CarModel, error)
	DeleteCarModel(ctx context.Context, id uuid.UUID) error

	ListProductBrands(ctx context.Context) ([]models.ProductBrand, error)
	CreateProductBrand(ctx context.Context, input NamedInput) (*models.ProductBrand, error)
	DeleteProductBrand(ctx context.Context, id uuid.UUID) error
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name           string          `json:"name" validate:"required"`
	Description    string          `json:"description"`
	SKU            string          `json:"sku" validate:"required"`
	Price          decimal.Decimal `json:"price"`
	StockQuantity  int             `json:"stock_quantity" validate:"gte=0"`
	Images         []string        `json:"images"`
	CategoryID     *uuid.UUID      `json:"category_id"`
	ProductBrandID *uuid.UUID      `json:"product_brand_id"`
	CarModelIDs    []uuid.UUID     `json:"car_model_ids"`
	Hidden         bool            `json:"hidden"`
	AddedByAdminID *uuid.UUID      `json:"-"`
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name      string     `json:"name" validate:"required"`
	ParentID  *uuid.UUID `json:"parent_id"`
	SortOrder int        `json:"sort_order"`
	Image     *string    `json:"image"`
}

// NamedInput is shared by the simple name+logo reference tables.
type NamedInput struct {
	Name string  `json:"name" validate:"required"`
	Logo *string `json:"logo"`
}

// CarModelInput carries the writable car model fields.
type CarModelInput struct {
	CarBrandID uuid.UUID `json:"car_brand_id" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	YearFrom   int       `json:"year_from" validate:"required"`
	YearTo     *int      `json:"year_to"`
}

type service struct {
	repo      Repository
	broadcast ChangeBroadcaster
	now       func() time.Time
}

// NewService wires catalog dependencies. broadcast may be nil in tests.
func NewService(repo Repository, broadcast ChangeBroadcaster) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
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

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	rows, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find product")
	}
	return row, nil
}

func validateProductInput(input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.SKU == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product sku required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.StockQuantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}
	row := &models.Product{
		ID:             uuid.New(),
		Name:           input.Name,
		Description:    input.Description,
		SKU:            input.SKU,
		Price:          input.Price.Round(2),
		StockQuantity:  input.StockQuantity,
		Images:         input.Images,
		CategoryID:     input.CategoryID,
		ProductBrandID: input.ProductBrandID,
		CarModelIDs:    input.CarModelIDs,
		Hidden:         input.Hidden,
		AddedByAdminID: input.AddedByAdminID,
	}
	if err := s.repo.CreateProduct(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	s.publish(ctx, TableProducts)
	return row, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}
	row, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	row.Name = input.Name
	row.Description = input.Description
	row.SKU = input.SKU
	row.Price = input.Price.Round(2)
	row.StockQuantity = input.StockQuantity
	row.Images = input.Images
	row.CategoryID = input.CategoryID
	row.ProductBrandID = input.ProductBrandID
	row.CarModelIDs = input.CarModelIDs
	row.Hidden = input.Hidden
	if err := s.repo.SaveProduct(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	s.publish(ctx, TableProducts)
	return row, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeleteProduct(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.publish(ctx, TableProducts)
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	if input.ParentID != nil {
		if _, err := s.repo.FindCategory(ctx, *input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find parent category")
		}
	}
	row := &models.Category{
		ID:        uuid.New(),
		Name:      input.Name,
		ParentID:  input.ParentID,
		SortOrder: input.SortOrder,
		Image:     input.Image,
	}
	if err := s.repo.CreateCategory(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	s.publish(ctx, TableCategories)
	return row, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	row, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find category")
	}
	row.Name = input.Name
	row.ParentID = input.ParentID
	row.SortOrder = input.SortOrder
	row.Image = input.Image
	if err := s.repo.SaveCategory(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	s.publish(ctx, TableCategories)
	return row, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeleteCategory(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	s.publish(ctx, TableCategories)
	return nil
}

func (s *service) ListCarBrands(ctx context.Context) ([]models.CarBrand, error) {
	rows, err := s.repo.ListCarBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list car brands")
	}
	return rows, nil
}

func (s *service) CreateCarBrand(ctx context.Context, input NamedInput) (*models.CarBrand, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "car brand name required")
	}
	row := &models.CarBrand{ID: uuid.New(), Name: input.Name, Logo: input.Logo}
	if err := s.repo.CreateCarBrand(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create car brand")
	}
	s.publish(ctx, TableCarBrands)
	return row, nil
}

func (s *service) DeleteCarBrand(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeleteCarBrand(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete car brand")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "car brand not found")
	}
	s.publish(ctx, TableCarBrands)
	return nil
}

func (s *service) ListCarModels(ctx context.Context, brandID *uuid.UUID) ([]models.CarModel, error) {
	rows, err := s.repo.ListCarModels(ctx, brandID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list car models")
	}
	return rows, nil
}

func (s *service) CreateCarModel(ctx context.Context, input CarModelInput) (*models.CarModel, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "car model name required")
	}
	if input.CarBrandID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "car brand required")
	}
	if input.YearFrom < 1900 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "year_from looks wrong")
	}
	if input.YearTo != nil && *input.YearTo < input.YearFrom {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "year_to precedes year_from")
	}
	row := &models.CarModel{
		ID:         uuid.New(),
		CarBrandID: input.CarBrandID,
		Name:       input.Name,
		YearFrom:   input.YearFrom,
		YearTo:     input.YearTo,
	}
	if err := s.repo.CreateCarModel(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create car model")
	}
	s.publish(ctx, TableCarModels)
	return row, nil
}

func (s *service) DeleteCarModel(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeleteCarModel(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete car model")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "car model not found")
	}
	s.publish(ctx, TableCarModels)
	return nil
}

func (s *service) ListProductBrands(ctx context.Context) ([]models.ProductBrand, error) {
	rows, err := s.repo.ListProductBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product brands")
	}
	return rows, nil
}

func (s *service) CreateProductBrand(ctx context.Context, input NamedInput) (*models.ProductBrand, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product brand name required")
	}
	row := &models.ProductBrand{ID: uuid.New(), Name: input.Name, Logo: input.Logo}
	if err := s.repo.CreateProductBrand(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product brand")
	}
	s.publish(ctx, TableProductBrands)
	return row, nil
}

func (s *service) DeleteProductBrand(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeleteProductBrand(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product brand")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product brand not found")
	}
	s.publish(ctx, TableProductBrands)
	return nil
}
