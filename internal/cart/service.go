package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/types"
)

// ProductSource exposes the live catalog rows the cart needs.
type ProductSource interface {
	FindActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// BundleSource resolves active bundle offers.
type BundleSource interface {
	ActiveOffer(ctx context.Context, id uuid.UUID) (*models.BundleOffer, error)
}

// Service is the cart pricing engine. Prices are frozen at add time;
// later catalog edits never reprice existing lines.
type Service interface {
	Add(ctx context.Context, params AddParams) (*Summary, error)
	AddPriced(ctx context.Context, params AddPricedParams) (*Summary, error)
	Update(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Summary, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	VoidBundle(ctx context.Context, userID, groupID uuid.UUID) (*Summary, error)
	Get(ctx context.Context, userID uuid.UUID) (*Summary, error)
	ValidateStock(ctx context.Context, userID uuid.UUID) (*StockReport, error)
}

// AddParams configures a standard add. When BundleOfferID is set the
// offer's percentage is applied and the line joins BundleGroupID (a
// fresh group when absent).
type AddParams struct {
	UserID        uuid.UUID
	ProductID     uuid.UUID
	Quantity      int
	BundleOfferID *uuid.UUID
	BundleGroupID *uuid.UUID
}

// AddPricedParams carries pre-computed pricing from an admin-assisted
// flow. The line is always appended, never merged.
type AddPricedParams struct {
	UserID         uuid.UUID
	ProductID      uuid.UUID
	Quantity       int
	OriginalPrice  decimal.Decimal
	FinalPrice     decimal.Decimal
	Discount       types.DiscountDetails
	BundleGroupID  *uuid.UUID
	AddedByAdminID *uuid.UUID
}

// LineView is a cart line with its derived amounts, rounded to cents.
type LineView struct {
	ID            uuid.UUID             `json:"id"`
	ProductID     uuid.UUID             `json:"product_id"`
	ProductName   string                `json:"product_name"`
	Quantity      int                   `json:"quantity"`
	OriginalPrice decimal.Decimal       `json:"original_price"`
	FinalPrice    decimal.Decimal       `json:"final_price"`
	Discount      types.DiscountDetails `json:"discount"`
	BundleGroupID *uuid.UUID            `json:"bundle_group_id,omitempty"`
	ItemSubtotal  decimal.Decimal       `json:"item_subtotal"`
	ItemDiscount  decimal.Decimal       `json:"item_discount"`
}

// Summary is the recomputed cart. Totals accumulate unrounded and are
// rounded to cents only here, so recomputation is idempotent.
type Summary struct {
	CartID        uuid.UUID       `json:"cart_id"`
	Items         []LineView      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
}

// StockCheck classifies one line against live stock.
type StockCheck struct {
	ItemID    uuid.UUID        `json:"item_id"`
	ProductID uuid.UUID        `json:"product_id"`
	Requested int              `json:"requested"`
	Status    enums.StockIssue `json:"status"`
	Available *int             `json:"available,omitempty"`
}

// StockReport is the read-only stock validation result.
type StockReport struct {
	Valid   bool         `json:"valid"`
	Results []StockCheck `json:"results"`
}

type service struct {
	repo     Repository
	products ProductSource
	bundles  BundleSource
}

// NewService wires cart dependencies.
func NewService(repo Repository, products ProductSource, bundles BundleSource) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product source required")
	}
	if bundles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bundle source required")
	}
	return &service{repo: repo, products: products, bundles: bundles}, nil
}

// Add freezes the product's current price onto a cart line. A plain add
// merges into an existing line with the same product and bundle group
// by bumping quantity. Two concurrent adds for the same line may each
// miss the other's insert and append twice; there is no CAS here and
// the duplicate line is tolerated.
func (s *service) Add(ctx context.Context, params AddParams) (*Summary, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if params.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.findProduct(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}

	original := product.Price
	final := original
	discount := types.NoDiscount()
	groupID := params.BundleGroupID

	if params.BundleOfferID != nil {
		offer, err := s.bundles.ActiveOffer(ctx, *params.BundleOfferID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle offer not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find bundle offer")
		}
		if !offer.ProductIDs.Contains(product.ID) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product not part of bundle offer")
		}
		final = bundleFinalPrice(original, offer.DiscountPercentage)
		discount = types.DiscountDetails{
			Type:     enums.DiscountTypeBundle,
			Percent:  offer.DiscountPercentage,
			SourceID: offer.ID,
		}
		if groupID == nil {
			fresh := uuid.New()
			groupID = &fresh
		}
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	for i := range cart.Items {
		if cart.Items[i].SameLine(product.ID, groupID) {
			cart.Items[i].Quantity += params.Quantity
			if err := s.repo.SaveItem(ctx, &cart.Items[i]); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
			}
			return s.Get(ctx, params.UserID)
		}
	}

	item := &models.CartItem{
		ID:            uuid.New(),
		CartID:        cart.ID,
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      params.Quantity,
		OriginalPrice: original,
		FinalPrice:    final,
		Discount:      discount,
		BundleGroupID: groupID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append cart line")
	}
	return s.Get(ctx, params.UserID)
}

// AddPriced records a line with caller-supplied pricing. Used by the
// admin-assisted flow where the discount was negotiated outside the
// bundle machinery. Always appends.
func (s *service) AddPriced(ctx context.Context, params AddPricedParams) (*Summary, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if params.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if params.OriginalPrice.IsNegative() || params.FinalPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}

	product, err := s.findProduct(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	item := &models.CartItem{
		ID:             uuid.New(),
		CartID:         cart.ID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		Quantity:       params.Quantity,
		OriginalPrice:  params.OriginalPrice.Round(2),
		FinalPrice:     params.FinalPrice.Round(2),
		Discount:       params.Discount,
		BundleGroupID:  params.BundleGroupID,
		AddedByAdminID: params.AddedByAdminID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append cart line")
	}
	return s.Get(ctx, params.UserID)
}

// Update replaces a line's quantity; zero or less removes the line.
func (s *service) Update(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if quantity <= 0 {
		if _, err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
		}
		return s.Get(ctx, userID)
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart line")
	}
	item.Quantity = quantity
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.Get(ctx, userID)
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.DeleteAllItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// VoidBundle restores every line in the group to its frozen original
// price and detaches it from the group. Quantities and line membership
// are untouched.
func (s *service) VoidBundle(ctx context.Context, userID, groupID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bundle group required")
	}
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	items, err := s.repo.ItemsByBundleGroup(ctx, cart.ID, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle lines")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle group not found")
	}

	for i := range items {
		items[i].FinalPrice = items[i].OriginalPrice
		items[i].Discount = types.NoDiscount()
		items[i].BundleGroupID = nil
	}
	if err := s.repo.SaveItems(ctx, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void bundle")
	}
	return s.Get(ctx, userID)
}

// Get recomputes the cart from its stored lines.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return summarize(cart), nil
}

// ValidateStock classifies each line against live stock. Read-only: no
// reservation and no cart mutation.
func (s *service) ValidateStock(ctx context.Context, userID uuid.UUID) (*StockReport, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	report := &StockReport{Valid: true, Results: make([]StockCheck, 0, len(cart.Items))}
	if len(cart.Items) == 0 {
		return report, nil
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.ActiveByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	for _, item := range cart.Items {
		check := StockCheck{ItemID: item.ID, ProductID: item.ProductID, Requested: item.Quantity}
		product, ok := byID[item.ProductID]
		switch {
		case !ok:
			check.Status = enums.StockIssueNotFound
			report.Valid = false
		case item.Quantity > product.StockQuantity:
			available := product.StockQuantity
			check.Status = enums.StockIssueInsufficient
			check.Available = &available
			report.Valid = false
		default:
			check.Status = enums.StockIssueNone
		}
		report.Results = append(report.Results, check)
	}
	return report, nil
}

func (s *service) findProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.products.FindActive(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find product")
	}
	return product, nil
}

func summarize(cart *models.Cart) *Summary {
	sums := computeTotals(cart.Items)
	summary := &Summary{
		CartID:        cart.ID,
		Items:         make([]LineView, 0, len(cart.Items)),
		Subtotal:      sums.Subtotal.Round(2),
		TotalDiscount: sums.TotalDiscount.Round(2),
		Total:         sums.Total.Round(2),
	}
	for _, item := range cart.Items {
		summary.Items = append(summary.Items, LineView{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			OriginalPrice: item.OriginalPrice,
			FinalPrice:    item.FinalPrice,
			Discount:      item.Discount,
			BundleGroupID: item.BundleGroupID,
			ItemSubtotal:  lineSubtotal(item).Round(2),
			ItemDiscount:  lineDiscount(item).Round(2),
		})
	}
	return summary
}
