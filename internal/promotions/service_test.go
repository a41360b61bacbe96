package promotions

import (
	"context"
	"errors"
	"testing"
	"time"

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

type promoFixture struct {
	svc       *service
	source    *Source
	broadcast *recordingBroadcaster
}

func newPromoFixture(t *testing.T) *promoFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Promotion{}, &models.BundleOffer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := NewRepository(gdb)
	broadcast := &recordingBroadcaster{}
	svc, err := NewService(repo, broadcast)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &promoFixture{svc: svc.(*service), source: NewSource(repo), broadcast: broadcast}
}

func TestPromotionScheduleWindow(t *testing.T) {
	ctx := context.Background()
	f := newPromoFixture(t)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	past := now.Add(-48 * time.Hour)
	recent := now.Add(-1 * time.Hour)
	soon := now.Add(1 * time.Hour)

	mustCreate := func(input PromotionInput) {
		t.Helper()
		if _, err := f.svc.CreatePromotion(ctx, input); err != nil {
			t.Fatalf("create promotion: %v", err)
		}
	}
	mustCreate(PromotionInput{Title: "Running", Type: "banner", Active: true, StartsAt: &recent, EndsAt: &soon})
	mustCreate(PromotionInput{Title: "Expired", Type: "banner", Active: true, StartsAt: &past, EndsAt: &recent})
	mustCreate(PromotionInput{Title: "Switched off", Type: "banner", Active: false})
	mustCreate(PromotionInput{Title: "Open ended", Type: "seasonal", Active: true})

	active, err := f.svc.ListPromotions(ctx, true)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active promotions, got %d", len(active))
	}
	for _, row := range active {
		if row.Title == "Expired" || row.Title == "Switched off" {
			t.Fatalf("promotion %q must not be listed as active", row.Title)
		}
	}

	all, err := f.svc.ListPromotions(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 promotions, got %d", len(all))
	}
}

func TestPromotionValidation(t *testing.T) {
	ctx := context.Background()
	f := newPromoFixture(t)

	if _, err := f.svc.CreatePromotion(ctx, PromotionInput{Title: "No type"}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing type, got %v", err)
	}
	if _, err := f.svc.CreatePromotion(ctx, PromotionInput{Title: "Bad type", Type: "popup"}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err := f.svc.CreatePromotion(ctx, PromotionInput{Title: "Backwards", Type: "banner", StartsAt: &start, EndsAt: &end})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inverted window, got %v", err)
	}
}

func TestPromotionUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newPromoFixture(t)

	created, err := f.svc.CreatePromotion(ctx, PromotionInput{Title: "Summer", Type: "seasonal", Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.svc.UpdatePromotion(ctx, created.ID, PromotionInput{Title: "Summer Sale", Type: "flash_sale", Active: false})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Summer Sale" || updated.Active {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := f.svc.DeletePromotion(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.svc.DeletePromotion(ctx, created.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on double delete, got %v", err)
	}

	want := []string{TablePromotions, TablePromotions, TablePromotions}
	if len(f.broadcast.tables) != len(want) {
		t.Fatalf("expected %d broadcasts, got %v", len(want), f.broadcast.tables)
	}
}

func TestOfferValidation(t *testing.T) {
	ctx := context.Background()
	f := newPromoFixture(t)

	productID := uuid.New()
	cases := []OfferInput{
		{DiscountPercentage: decimal.NewFromInt(10), ProductIDs: []uuid.UUID{productID}},
		{Title: "No products", DiscountPercentage: decimal.NewFromInt(10)},
		{Title: "Zero pct", DiscountPercentage: decimal.Zero, ProductIDs: []uuid.UUID{productID}},
		{Title: "Over", DiscountPercentage: decimal.NewFromInt(101), ProductIDs: []uuid.UUID{productID}},
		{Title: "Dup", DiscountPercentage: decimal.NewFromInt(10), ProductIDs: []uuid.UUID{productID, productID}},
		{Title: "Nil id", DiscountPercentage: decimal.NewFromInt(10), ProductIDs: []uuid.UUID{uuid.Nil}},
	}
	for i, input := range cases {
		_, err := f.svc.CreateOffer(ctx, input)
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestOfferLifecycleAndCartView(t *testing.T) {
	ctx := context.Background()
	f := newPromoFixture(t)

	first := uuid.New()
	second := uuid.New()
	created, err := f.svc.CreateOffer(ctx, OfferInput{
		Title:              "Brake bundle",
		DiscountPercentage: decimal.NewFromInt(20),
		ProductIDs:         []uuid.UUID{first, second},
		Active:             true,
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}

	offer, err := f.source.ActiveOffer(ctx, created.ID)
	if err != nil {
		t.Fatalf("active offer: %v", err)
	}
	if !offer.ProductIDs.Contains(first) || !offer.ProductIDs.Contains(second) {
		t.Fatal("product ids not round-tripped")
	}
	if got := offer.DiscountPercentage.StringFixed(2); got != "20.00" {
		t.Fatalf("expected 20.00 percent, got %s", got)
	}

	// deactivating hides the offer from the cart path
	_, err = f.svc.UpdateOffer(ctx, created.ID, OfferInput{
		Title:              "Brake bundle",
		DiscountPercentage: decimal.NewFromInt(20),
		ProductIDs:         []uuid.UUID{first, second},
		Active:             false,
	})
	if err != nil {
		t.Fatalf("update offer: %v", err)
	}
	if _, err := f.source.ActiveOffer(ctx, created.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for inactive offer, got %v", err)
	}

	activeOnly, err := f.svc.ListOffers(ctx, true)
	if err != nil {
		t.Fatalf("list active offers: %v", err)
	}
	if len(activeOnly) != 0 {
		t.Fatalf("expected no active offers, got %d", len(activeOnly))
	}
}
