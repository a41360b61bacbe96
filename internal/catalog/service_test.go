package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

type recordingBroadcaster struct {
	tables []string
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, tables ...string) {
	b.tables = append(b.tables, tables...)
}

type catalogFixture struct {
	svc       Service
	repo      Repository
	source    *Source
	broadcast *recordingBroadcaster
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = gdb.AutoMigrate(
		&models.Product{},
		&models.Category{},
		&models.CarBrand{},
		&models.CarModel{},
		&models.ProductBrand{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := NewRepository(gdb)
	broadcast := &recordingBroadcaster{}
	svc, err := NewService(repo, broadcast)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &catalogFixture{svc: svc, repo: repo, source: NewSource(repo), broadcast: broadcast}
}

func (f *catalogFixture) createProduct(t *testing.T, input ProductInput) *models.Product {
	t.Helper()
	row, err := f.svc.CreateProduct(context.Background(), input)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return row
}

func TestCreateAndGetProduct(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	created := f.createProduct(t, ProductInput{
		Name:          "Brake Pad Set",
		SKU:           "BP-1001",
		Price:         decimal.RequireFromString("19.999"),
		StockQuantity: 5,
	})
	if created.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if got := created.Price.StringFixed(2); got != "20.00" {
		t.Fatalf("expected price rounded to 20.00, got %s", got)
	}

	found, err := f.svc.GetProduct(ctx, created.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if found.SKU != "BP-1001" {
		t.Fatalf("unexpected sku %q", found.SKU)
	}
	if len(f.broadcast.tables) != 1 || f.broadcast.tables[0] != TableProducts {
		t.Fatalf("expected products broadcast, got %v", f.broadcast.tables)
	}
}

func TestCreateProductValidation(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	cases := []ProductInput{
		{SKU: "X-1", Price: decimal.NewFromInt(1)},
		{Name: "Filter", Price: decimal.NewFromInt(1)},
		{Name: "Filter", SKU: "X-1", Price: decimal.NewFromInt(-1)},
		{Name: "Filter", SKU: "X-1", StockQuantity: -2},
		{Name: "   ", SKU: "X-1", Price: decimal.NewFromInt(1)},
	}
	for i, input := range cases {
		_, err := f.svc.CreateProduct(ctx, input)
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if len(f.broadcast.tables) != 0 {
		t.Fatalf("rejected inputs must not broadcast, got %v", f.broadcast.tables)
	}
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	f.createProduct(t, ProductInput{Name: "Oil Filter", SKU: "OF-7", Price: decimal.NewFromInt(9)})
	_, err := f.svc.CreateProduct(ctx, ProductInput{Name: "Other Filter", SKU: "OF-7", Price: decimal.NewFromInt(11)})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on duplicate sku, got %v", err)
	}
}

func TestListProductsHiddenFilter(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	f.createProduct(t, ProductInput{Name: "Public Part", SKU: "P-1", Price: decimal.NewFromInt(10)})
	f.createProduct(t, ProductInput{Name: "Hidden Part", SKU: "P-2", Price: decimal.NewFromInt(10), Hidden: true})

	visible, err := f.svc.ListProducts(ctx, ProductFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 1 || visible[0].SKU != "P-1" {
		t.Fatalf("expected only the public part, got %d rows", len(visible))
	}

	all, err := f.svc.ListProducts(ctx, ProductFilter{IncludeHidden: true})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows with hidden included, got %d", len(all))
	}
}

func TestListProductsCategoryAndSearch(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	category, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Brakes"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	f.createProduct(t, ProductInput{Name: "Brake Disc", SKU: "BD-1", Price: decimal.NewFromInt(40), CategoryID: &category.ID})
	f.createProduct(t, ProductInput{Name: "Spark Plug", SKU: "SP-1", Price: decimal.NewFromInt(4)})

	byCategory, err := f.svc.ListProducts(ctx, ProductFilter{CategoryID: &category.ID})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].SKU != "BD-1" {
		t.Fatalf("category filter failed, got %d rows", len(byCategory))
	}

	bySearch, err := f.svc.ListProducts(ctx, ProductFilter{Search: "Spark"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].SKU != "SP-1" {
		t.Fatalf("search filter failed, got %d rows", len(bySearch))
	}
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	created := f.createProduct(t, ProductInput{Name: "Alternator", SKU: "AL-1", Price: decimal.NewFromInt(120), StockQuantity: 3})
	updated, err := f.svc.UpdateProduct(ctx, created.ID, ProductInput{
		Name:          "Alternator 90A",
		SKU:           "AL-1",
		Price:         decimal.RequireFromString("135.50"),
		StockQuantity: 7,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Alternator 90A" || updated.StockQuantity != 7 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if got := updated.Price.StringFixed(2); got != "135.50" {
		t.Fatalf("expected price 135.50, got %s", got)
	}

	_, err = f.svc.UpdateProduct(ctx, uuid.New(), ProductInput{Name: "Ghost", SKU: "G-1", Price: decimal.NewFromInt(1)})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	created := f.createProduct(t, ProductInput{Name: "Radiator", SKU: "RA-1", Price: decimal.NewFromInt(80)})
	if err := f.svc.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := f.svc.GetProduct(ctx, created.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := f.svc.DeleteProduct(ctx, created.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestCategoryParentMustExist(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	ghost := uuid.New()
	_, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Filters", ParentID: &ghost})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing parent, got %v", err)
	}

	parent, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Engine"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Filters", ParentID: &parent.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Fatal("parent link not stored")
	}
}

func TestCategoriesOrderedBySortOrder(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	if _, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Zulu", SortOrder: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Alpha", SortOrder: 2}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := f.svc.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Zulu" {
		t.Fatalf("expected sort_order to win over name, got %+v", rows)
	}
}

func TestCarModelValidation(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	brand, err := f.svc.CreateCarBrand(ctx, NamedInput{Name: "Toyoda"})
	if err != nil {
		t.Fatalf("create brand: %v", err)
	}

	badYearTo := 2001
	_, err = f.svc.CreateCarModel(ctx, CarModelInput{CarBrandID: brand.ID, Name: "Runner", YearFrom: 2005, YearTo: &badYearTo})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inverted years, got %v", err)
	}

	model, err := f.svc.CreateCarModel(ctx, CarModelInput{CarBrandID: brand.ID, Name: "Runner", YearFrom: 2005})
	if err != nil {
		t.Fatalf("create model: %v", err)
	}

	rows, err := f.svc.ListCarModels(ctx, &brand.ID)
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != model.ID {
		t.Fatalf("expected the created model, got %d rows", len(rows))
	}
}

func TestSourceSkipsDeletedProducts(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	created := f.createProduct(t, ProductInput{Name: "Clutch Kit", SKU: "CK-1", Price: decimal.NewFromInt(240)})
	if _, err := f.source.FindActive(ctx, created.ID); err != nil {
		t.Fatalf("find active: %v", err)
	}

	if err := f.svc.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.source.FindActive(ctx, created.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found after delete, got %v", err)
	}
}

func TestSourceDecrementStockGuard(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	created := f.createProduct(t, ProductInput{Name: "Wiper Blade", SKU: "WB-1", Price: decimal.NewFromInt(6), StockQuantity: 2})

	affected, err := f.source.DecrementStock(ctx, created.ID, 3)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if affected != 0 {
		t.Fatal("oversell must not touch the row")
	}

	affected, err = f.source.DecrementStock(ctx, created.ID, 2)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if affected != 1 {
		t.Fatal("expected the decrement to apply")
	}

	row, err := f.svc.GetProduct(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.StockQuantity != 0 {
		t.Fatalf("expected stock 0, got %d", row.StockQuantity)
	}
}

func TestSourceSettlementLedger(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	adminID := uuid.New()
	first := f.createProduct(t, ProductInput{Name: "Strut", SKU: "ST-1", Price: decimal.NewFromInt(70), AddedByAdminID: &adminID})
	second := f.createProduct(t, ProductInput{Name: "Spring", SKU: "SG-1", Price: decimal.NewFromInt(30), AddedByAdminID: &adminID})
	f.createProduct(t, ProductInput{Name: "Unrelated", SKU: "UN-1", Price: decimal.NewFromInt(5)})

	unsettled, err := f.source.UnsettledByAdmin(ctx, adminID)
	if err != nil {
		t.Fatalf("unsettled: %v", err)
	}
	if len(unsettled) != 2 {
		t.Fatalf("expected 2 unsettled products, got %d", len(unsettled))
	}

	marked, err := f.source.MarkSettled(ctx, []uuid.UUID{first.ID, second.ID})
	if err != nil {
		t.Fatalf("mark settled: %v", err)
	}
	if marked != 2 {
		t.Fatalf("expected 2 rows marked, got %d", marked)
	}

	unsettled, err = f.source.UnsettledByAdmin(ctx, adminID)
	if err != nil {
		t.Fatalf("unsettled: %v", err)
	}
	if len(unsettled) != 0 {
		t.Fatalf("expected empty ledger after settle, got %d", len(unsettled))
	}
}
