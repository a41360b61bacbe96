package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gearhouse/autoparts-backend/api/responses"
	"github.com/gearhouse/autoparts-backend/api/validators"
	cartsvc "github.com/gearhouse/autoparts-backend/internal/cart"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
	"github.com/gearhouse/autoparts-backend/pkg/types"
)

// GetCart returns the caller's cart with recomputed totals.
func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type addCartItemRequest struct {
	ProductID     uuid.UUID  `json:"product_id" validate:"required"`
	Quantity      int        `json:"quantity" validate:"required,min=1"`
	BundleOfferID *uuid.UUID `json:"bundle_offer_id"`
	BundleGroupID *uuid.UUID `json:"bundle_group_id"`
}

// AddCartItem freezes the current product price onto a new or merged line.
func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Add(r.Context(), cartsvc.AddParams{
			UserID:        userID,
			ProductID:     payload.ProductID,
			Quantity:      payload.Quantity,
			BundleOfferID: payload.BundleOfferID,
			BundleGroupID: payload.BundleGroupID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type addPricedCartItemRequest struct {
	UserID        uuid.UUID             `json:"user_id" validate:"required"`
	ProductID     uuid.UUID             `json:"product_id" validate:"required"`
	Quantity      int                   `json:"quantity" validate:"required,min=1"`
	OriginalPrice decimal.Decimal       `json:"original_price" validate:"required"`
	FinalPrice    decimal.Decimal       `json:"final_price" validate:"required"`
	Discount      types.DiscountDetails `json:"discount"`
	BundleGroupID *uuid.UUID            `json:"bundle_group_id"`
}

// AddPricedCartItem is the staff-assisted path: pricing arrives
// pre-computed and the acting admin is recorded on the line.
func AddPricedCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addPricedCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.AddPriced(r.Context(), cartsvc.AddPricedParams{
			UserID:         payload.UserID,
			ProductID:      payload.ProductID,
			Quantity:       payload.Quantity,
			OriginalPrice:  payload.OriginalPrice,
			FinalPrice:     payload.FinalPrice,
			Discount:       payload.Discount,
			BundleGroupID:  payload.BundleGroupID,
			AddedByAdminID: &actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem sets a line's quantity; zero or less removes the line.
func UpdateCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.URLParamUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Update(r.Context(), userID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ClearCart removes every line from the caller's cart.
func ClearCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// VoidCartBundle strips a bundle discount from every line in the group.
func VoidCartBundle(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := validators.URLParamUUID(r, "groupID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.VoidBundle(r.Context(), userID, groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ValidateCartStock reports each line's availability without mutating.
func ValidateCartStock(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.ValidateStock(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
