package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/api/middleware"
	"github.com/gearhouse/autoparts-backend/api/responses"
	"github.com/gearhouse/autoparts-backend/api/validators"
	"github.com/gearhouse/autoparts-backend/internal/orders"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
	"github.com/gearhouse/autoparts-backend/pkg/pagination"
)

type checkoutRequest struct {
	ShippingName  string  `json:"shipping_name" validate:"required"`
	ShippingPhone string  `json:"shipping_phone" validate:"required"`
	ShippingAddr  string  `json:"shipping_addr" validate:"required"`
	Notes         *string `json:"notes"`
}

// Checkout snapshots the caller's cart into a pending order.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), orders.CheckoutParams{
			UserID:        userID,
			ShippingName:  payload.ShippingName,
			ShippingPhone: payload.ShippingPhone,
			ShippingAddr:  payload.ShippingAddr,
			Notes:         payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder returns one order. Non-staff callers only see their own.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := &userID
		if isStaff(middleware.RoleFromContext(r.Context())) {
			scope = nil
		}

		order, err := svc.Get(r.Context(), id, scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders pages through orders. Users get their own history; staff
// see everything and may filter by user_id or status.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := orders.ListParams{UserID: &userID}
		if isStaff(middleware.RoleFromContext(r.Context())) {
			filterUser, err := validators.ParseQueryUUID(r, "user_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			params.UserID = filterUser
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateOrderStatus moves an order along its lifecycle. Staff only.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := validators.URLParamUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateStatus(r.Context(), id, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// PullOrderChanges serves the orders delta feed. Non-staff callers are
// always scoped to their own rows regardless of query parameters.
func PullOrderChanges(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		since, err := validators.ParseQuerySince(r, "since")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := &userID
		if isStaff(middleware.RoleFromContext(r.Context())) {
			scope = nil
			if filterUser, err := validators.ParseQueryUUID(r, "user_id"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			} else if filterUser != nil && *filterUser != uuid.Nil {
				scope = filterUser
			}
		}

		changes, err := svc.PullChanges(r.Context(), since, scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, changes)
	}
}
