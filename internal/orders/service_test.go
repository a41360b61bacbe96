package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gearhouse/autoparts-backend/internal/cart"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
	"github.com/gearhouse/autoparts-backend/pkg/types"
)

type stubCarts struct {
	summary     *cart.Summary
	report      *cart.StockReport
	clearCalled bool
}

func (s *stubCarts) Get(ctx context.Context, userID uuid.UUID) (*cart.Summary, error) {
	return s.summary, nil
}

func (s *stubCarts) ValidateStock(ctx context.Context, userID uuid.UUID) (*cart.StockReport, error) {
	return s.report, nil
}

func (s *stubCarts) Clear(ctx context.Context, userID uuid.UUID) error {
	s.clearCalled = true
	return nil
}

type stubStock struct {
	decrements map[uuid.UUID]int
	affected   int64
}

func (s *stubStock) DecrementStock(ctx context.Context, id uuid.UUID, by int) (int64, error) {
	if s.decrements == nil {
		s.decrements = map[uuid.UUID]int{}
	}
	s.decrements[id] += by
	return s.affected, nil
}

type stubNotifier struct {
	notes []string
}

func (s *stubNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string, typ enums.NotificationType) error {
	s.notes = append(s.notes, title)
	return nil
}

type recordingBroadcaster struct {
	tables []string
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, tables ...string) {
	b.tables = append(b.tables, tables...)
}

type orderFixture struct {
	svc       Service
	repo      Repository
	carts     *stubCarts
	stock     *stubStock
	notifier  *stubNotifier
	broadcast *recordingBroadcaster
	userID    uuid.UUID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Order{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userID := uuid.New()
	productID := uuid.New()
	carts := &stubCarts{
		report: &cart.StockReport{Valid: true},
		summary: &cart.Summary{
			CartID: uuid.New(),
			Items: []cart.LineView{{
				ID:            uuid.New(),
				ProductID:     productID,
				ProductName:   "Brake Pad Set",
				Quantity:      2,
				OriginalPrice: decimal.RequireFromString("100.00"),
				FinalPrice:    decimal.RequireFromString("80.00"),
				Discount:      types.DiscountDetails{Type: enums.DiscountTypeBundle, Percent: decimal.NewFromInt(20)},
			}},
			Subtotal:      decimal.RequireFromString("200.00"),
			TotalDiscount: decimal.RequireFromString("40.00"),
			Total:         decimal.RequireFromString("160.00"),
		},
	}
	stock := &stubStock{affected: 1}
	notifier := &stubNotifier{}
	broadcast := &recordingBroadcaster{}

	repo := NewRepository(gdb)
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewService(repo, carts, stock, notifier, broadcast, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &orderFixture{
		svc:       svc,
		repo:      repo,
		carts:     carts,
		stock:     stock,
		notifier:  notifier,
		broadcast: broadcast,
		userID:    userID,
	}
}

func validCheckout(userID uuid.UUID) CheckoutParams {
	return CheckoutParams{
		UserID:        userID,
		ShippingName:  "Dana Smith",
		ShippingPhone: "555-0101",
		ShippingAddr:  "12 Main St",
	}
}

func TestCheckoutSnapshotsCart(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	order, err := f.svc.Checkout(ctx, validCheckout(f.userID))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].ProductName != "Brake Pad Set" {
		t.Fatalf("unexpected items %+v", order.Items)
	}
	if got := order.Total.StringFixed(2); got != "160.00" {
		t.Fatalf("expected total 160.00, got %s", got)
	}

	if !f.carts.clearCalled {
		t.Fatal("cart must be cleared after checkout")
	}
	productID := f.carts.summary.Items[0].ProductID
	if f.stock.decrements[productID] != 2 {
		t.Fatalf("expected stock decrement of 2, got %d", f.stock.decrements[productID])
	}
	if len(f.notifier.notes) != 1 || f.notifier.notes[0] != "Order placed" {
		t.Fatalf("expected order placed notification, got %v", f.notifier.notes)
	}
	if len(f.broadcast.tables) != 1 || f.broadcast.tables[0] != TableOrders {
		t.Fatalf("expected orders broadcast, got %v", f.broadcast.tables)
	}

	// snapshot is persisted, not recomputed
	stored, err := f.svc.Get(ctx, order.ID, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := stored.Items[0].FinalPrice.StringFixed(2); got != "80.00" {
		t.Fatalf("expected stored final price 80.00, got %s", got)
	}
}

func TestCheckoutRejectsStockConflict(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	f.carts.report = &cart.StockReport{Valid: false}

	_, err := f.svc.Checkout(ctx, validCheckout(f.userID))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.carts.clearCalled {
		t.Fatal("failed checkout must not clear the cart")
	}
}

func TestCheckoutValidation(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	_, err := f.svc.Checkout(ctx, CheckoutParams{ShippingName: "x", ShippingPhone: "y", ShippingAddr: "z"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized without user, got %v", err)
	}

	params := validCheckout(f.userID)
	params.ShippingAddr = "   "
	_, err = f.svc.Checkout(ctx, params)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for blank address, got %v", err)
	}

	f.carts.summary = &cart.Summary{CartID: uuid.New()}
	_, err = f.svc.Checkout(ctx, validCheckout(f.userID))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for empty cart, got %v", err)
	}
}

func TestGetScopedToOwner(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	order, err := f.svc.Checkout(ctx, validCheckout(f.userID))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := f.svc.Get(ctx, order.ID, &f.userID); err != nil {
		t.Fatalf("owner read: %v", err)
	}

	stranger := uuid.New()
	_, err = f.svc.Get(ctx, order.ID, &stranger)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("stranger must see not found, got %v", err)
	}
}

func TestListFiltersByUserAndStatus(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	mine, err := f.svc.Checkout(ctx, validCheckout(f.userID))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	other := uuid.New()
	if _, err := f.svc.Checkout(ctx, validCheckout(other)); err != nil {
		t.Fatalf("checkout other: %v", err)
	}

	all, err := f.svc.List(ctx, ListParams{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all.Items))
	}

	scoped, err := f.svc.List(ctx, ListParams{UserID: &f.userID})
	if err != nil {
		t.Fatalf("list scoped: %v", err)
	}
	if len(scoped.Items) != 1 || scoped.Items[0].ID != mine.ID {
		t.Fatalf("expected only own order, got %d rows", len(scoped.Items))
	}

	shipped := enums.OrderStatusShipped
	none, err := f.svc.List(ctx, ListParams{Status: &shipped})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(none.Items) != 0 {
		t.Fatalf("expected no shipped orders, got %d", len(none.Items))
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	order, err := f.svc.Checkout(ctx, validCheckout(f.userID))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	updated, err := f.svc.UpdateStatus(ctx, order.ID, "shipped")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}

	if _, err := f.svc.UpdateStatus(ctx, order.ID, "warehouse"); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for unknown status, got %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, order.ID, "delivered"); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	_, err = f.svc.UpdateStatus(ctx, order.ID, "preparing")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict leaving terminal status, got %v", err)
	}

	// owner is told about each real transition
	if len(f.notifier.notes) != 3 {
		t.Fatalf("expected 3 notifications (placed, shipped, delivered), got %v", f.notifier.notes)
	}
}

func TestPullChangesScoping(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	mine, err := f.svc.Checkout(ctx, validCheckout(f.userID))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := f.svc.Checkout(ctx, validCheckout(uuid.New())); err != nil {
		t.Fatalf("checkout other: %v", err)
	}

	full, err := f.svc.PullChanges(ctx, nil, nil)
	if err != nil {
		t.Fatalf("full pull: %v", err)
	}
	if len(full.Items) != 2 {
		t.Fatalf("expected full snapshot of 2, got %d", len(full.Items))
	}
	if full.ServerTime == "" {
		t.Fatal("expected server_time")
	}
	if _, err := time.Parse(time.RFC3339Nano, full.ServerTime); err != nil {
		t.Fatalf("server_time not RFC3339Nano: %v", err)
	}

	scoped, err := f.svc.PullChanges(ctx, nil, &f.userID)
	if err != nil {
		t.Fatalf("scoped pull: %v", err)
	}
	if len(scoped.Items) != 1 || scoped.Items[0].ID != mine.ID {
		t.Fatalf("expected only own order, got %d rows", len(scoped.Items))
	}

	future := time.Now().UTC().Add(time.Hour)
	empty, err := f.svc.PullChanges(ctx, &future, nil)
	if err != nil {
		t.Fatalf("delta pull: %v", err)
	}
	if len(empty.Items) != 0 || len(empty.DeletedIDs) != 0 {
		t.Fatalf("expected empty delta, got %+v", empty)
	}
}
