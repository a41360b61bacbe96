package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/internal/cart"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
	"github.com/gearhouse/autoparts-backend/pkg/pagination"
	"github.com/gearhouse/autoparts-backend/pkg/types"
)

// TableOrders is published after order mutations.
const TableOrders = "orders"

// CartGateway is the slice of the cart engine checkout needs.
type CartGateway interface {
	Get(ctx context.Context, userID uuid.UUID) (*cart.Summary, error)
	ValidateStock(ctx context.Context, userID uuid.UUID) (*cart.StockReport, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// StockTaker decrements catalog stock for sold lines.
type StockTaker interface {
	DecrementStock(ctx context.Context, id uuid.UUID, by int) (int64, error)
}

// Notifier records a notification for a user, best-effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, typ enums.NotificationType) error
}

// ChangeBroadcaster notifies connected clients that tables changed.
type ChangeBroadcaster interface {
	Broadcast(ctx context.Context, tables ...string)
}

// Service manages checkout and order fulfillment.
type Service interface {
	Checkout(ctx context.Context, params CheckoutParams) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID, scopeUserID *uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error)
	PullChanges(ctx context.Context, since *time.Time, scopeUserID *uuid.UUID) (*ChangeSet, error)
}

// CheckoutParams carries shipping details for a new order.
type CheckoutParams struct {
	UserID        uuid.UUID
	ShippingName  string  `json:"shipping_name" validate:"required"`
	ShippingPhone string  `json:"shipping_phone" validate:"required"`
	ShippingAddr  string  `json:"shipping_addr" validate:"required"`
	Notes         *string `json:"notes"`
}

// ListParams filters and paginates order listings. A nil UserID lists
// every user's orders; callers gate that on staff roles.
type ListParams struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

// ListResult wraps returned orders and the cursor for the next page.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

// ChangeSet is the delta-pull payload for orders.
type ChangeSet struct {
	Items      []models.Order `json:"items"`
	DeletedIDs []uuid.UUID    `json:"deleted_ids"`
	ServerTime string         `json:"server_time"`
}

type service struct {
	repo      Repository
	carts     CartGateway
	stock     StockTaker
	notifier  Notifier
	broadcast ChangeBroadcaster
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires order dependencies. notifier and broadcast may be
// nil in tests.
func NewService(repo Repository, carts CartGateway, stock StockTaker, notifier Notifier, broadcast ChangeBroadcaster, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart gateway required")
	}
	if stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stock taker required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:      repo,
		carts:     carts,
		stock:     stock,
		notifier:  notifier,
		broadcast: broadcast,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) publish(ctx context.Context, table string) {
	if s.broadcast != nil {
		s.broadcast.Broadcast(ctx, table)
	}
}

// Checkout snapshots the cart into a pending order. Stock decrements
// and the notification are best-effort; the order row is the source of
// truth once created.
func (s *service) Checkout(ctx context.Context, params CheckoutParams) (*models.Order, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	params.ShippingName = strings.TrimSpace(params.ShippingName)
	params.ShippingPhone = strings.TrimSpace(params.ShippingPhone)
	params.ShippingAddr = strings.TrimSpace(params.ShippingAddr)
	if params.ShippingName == "" || params.ShippingPhone == "" || params.ShippingAddr == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping name, phone and address required")
	}

	report, err := s.carts.ValidateStock(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart no longer matches available stock")
	}

	summary, err := s.carts.Get(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make(types.OrderLines, 0, len(summary.Items))
	for _, item := range summary.Items {
		lines = append(lines, types.OrderLine{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			OriginalPrice: item.OriginalPrice,
			FinalPrice:    item.FinalPrice,
			Discount:      item.Discount,
			BundleGroupID: item.BundleGroupID,
		})
	}

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        params.UserID,
		Items:         lines,
		Subtotal:      summary.Subtotal,
		TotalDiscount: summary.TotalDiscount,
		Total:         summary.Total,
		Status:        enums.OrderStatusPending,
		ShippingName:  params.ShippingName,
		ShippingPhone: params.ShippingPhone,
		ShippingAddr:  params.ShippingAddr,
		Notes:         params.Notes,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	for _, line := range lines {
		affected, err := s.stock.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil || affected == 0 {
			fields := map[string]any{"order_id": order.ID.String(), "product_id": line.ProductID.String()}
			if err != nil {
				fields["error"] = err.Error()
			}
			s.logg.Warn(s.logg.WithFields(ctx, fields), "stock decrement skipped at checkout")
		}
	}

	if err := s.carts.Clear(ctx, params.UserID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart clear failed after checkout")
	}

	s.notify(ctx, order.UserID, "Order placed",
		fmt.Sprintf("Order %s received, total %s", shortID(order.ID), order.Total.StringFixed(2)))
	s.publish(ctx, TableOrders)
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, scopeUserID *uuid.UUID) (*models.Order, error) {
	row, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	// scoped readers cannot learn whether other users' orders exist
	if scopeUserID != nil && row.UserID != *scopeUserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listOrdersParams{
		UserID: params.UserID,
		Status: params.Status,
		Limit:  params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	next, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	row, err := s.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if row.Status == next {
		return row, nil
	}
	if row.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("order already %s", row.Status))
	}

	row.Status = next
	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	s.notify(ctx, row.UserID, "Order update",
		fmt.Sprintf("Order %s is now %s", shortID(row.ID), next))
	s.publish(ctx, TableOrders)
	return row, nil
}

// PullChanges returns orders touched since the given instant, scoped
// to one user unless the caller may see everything. server_time is
// captured before the query so the next pull cannot miss rows.
func (s *service) PullChanges(ctx context.Context, since *time.Time, scopeUserID *uuid.UUID) (*ChangeSet, error) {
	serverTime := s.now()
	rows, deleted, err := s.repo.ChangedSince(ctx, since, scopeUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pull order changes")
	}
	if rows == nil {
		rows = []models.Order{}
	}
	if deleted == nil {
		deleted = []uuid.UUID{}
	}
	return &ChangeSet{
		Items:      rows,
		DeletedIDs: deleted,
		ServerTime: serverTime.Format(time.RFC3339Nano),
	}, nil
}

func (s *service) notify(ctx context.Context, userID uuid.UUID, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, title, message, enums.NotificationTypeOrderStatus); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order notification failed")
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
