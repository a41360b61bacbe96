package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/internal/orders"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
)

type testOrdersService struct {
	checkoutFn     func(ctx context.Context, params orders.CheckoutParams) (*models.Order, error)
	getFn          func(ctx context.Context, id uuid.UUID, scopeUserID *uuid.UUID) (*models.Order, error)
	listFn         func(ctx context.Context, params orders.ListParams) (*orders.ListResult, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, status string) (*models.Order, error)
	pullChangesFn  func(ctx context.Context, since *time.Time, scopeUserID *uuid.UUID) (*orders.ChangeSet, error)
}

func (s *testOrdersService) Checkout(ctx context.Context, params orders.CheckoutParams) (*models.Order, error) {
	if s.checkoutFn != nil {
		return s.checkoutFn(ctx, params)
	}
	return &models.Order{}, nil
}

func (s *testOrdersService) Get(ctx context.Context, id uuid.UUID, scopeUserID *uuid.UUID) (*models.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id, scopeUserID)
	}
	return &models.Order{}, nil
}

func (s *testOrdersService) List(ctx context.Context, params orders.ListParams) (*orders.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &orders.ListResult{}, nil
}

func (s *testOrdersService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, id, status)
	}
	return &models.Order{}, nil
}

func (s *testOrdersService) PullChanges(ctx context.Context, since *time.Time, scopeUserID *uuid.UUID) (*orders.ChangeSet, error) {
	if s.pullChangesFn != nil {
		return s.pullChangesFn(ctx, since, scopeUserID)
	}
	return &orders.ChangeSet{}, nil
}

func TestCheckoutRequiresAuth(t *testing.T) {
	body := strings.NewReader(`{"shipping_name":"A","shipping_phone":"1","shipping_addr":"X"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", body)
	resp := httptest.NewRecorder()
	Checkout(&testOrdersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutPassesShippingFields(t *testing.T) {
	userID := uuid.New()
	svc := &testOrdersService{
		checkoutFn: func(ctx context.Context, params orders.CheckoutParams) (*models.Order, error) {
			if params.UserID != userID {
				t.Fatalf("unexpected user %s", params.UserID)
			}
			if params.ShippingName != "Ada" || params.ShippingAddr != "1 Main St" {
				t.Fatalf("shipping fields lost: %+v", params)
			}
			return &models.Order{ID: uuid.New(), UserID: userID}, nil
		},
	}

	body := strings.NewReader(`{"shipping_name":"Ada","shipping_phone":"555","shipping_addr":"1 Main St"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", body)
	req = authedRequest(req, userID, enums.RoleUser)
	resp := httptest.NewRecorder()
	Checkout(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCheckoutRejectsMissingShipping(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", strings.NewReader(`{"shipping_name":"Ada"}`))
	req = authedRequest(req, uuid.New(), enums.RoleUser)
	resp := httptest.NewRecorder()
	Checkout(&testOrdersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetOrderScopesNonStaff(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &testOrdersService{
		getFn: func(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*models.Order, error) {
			if scope == nil || *scope != userID {
				t.Fatalf("expected scope pinned to caller, got %v", scope)
			}
			return &models.Order{ID: id, UserID: userID}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = authedRequest(req, userID, enums.RoleUser)
	req = addRouteParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	GetOrder(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestGetOrderUnscopedForStaff(t *testing.T) {
	orderID := uuid.New()
	svc := &testOrdersService{
		getFn: func(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*models.Order, error) {
			if scope != nil {
				t.Fatalf("staff lookup must be unscoped, got %v", scope)
			}
			return &models.Order{ID: id}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = authedRequest(req, uuid.New(), enums.RolePartner)
	req = addRouteParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	GetOrder(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestListOrdersIgnoresUserFilterForNonStaff(t *testing.T) {
	userID := uuid.New()
	svc := &testOrdersService{
		listFn: func(ctx context.Context, params orders.ListParams) (*orders.ListResult, error) {
			if params.UserID == nil || *params.UserID != userID {
				t.Fatalf("non-staff list must be scoped to caller, got %v", params.UserID)
			}
			return &orders.ListResult{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?user_id="+uuid.NewString(), nil)
	req = authedRequest(req, userID, enums.RoleUser)
	resp := httptest.NewRecorder()
	ListOrders(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestListOrdersStaffUserFilter(t *testing.T) {
	filterID := uuid.New()
	svc := &testOrdersService{
		listFn: func(ctx context.Context, params orders.ListParams) (*orders.ListResult, error) {
			if params.UserID == nil || *params.UserID != filterID {
				t.Fatalf("expected staff filter %s, got %v", filterID, params.UserID)
			}
			return &orders.ListResult{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?user_id="+filterID.String(), nil)
	req = authedRequest(req, uuid.New(), enums.RoleOwner)
	resp := httptest.NewRecorder()
	ListOrders(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestListOrdersRejectsBadStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=teleported", nil)
	req = authedRequest(req, uuid.New(), enums.RoleUser)
	resp := httptest.NewRecorder()
	ListOrders(&testOrdersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPullOrderChangesForcesOwnScope(t *testing.T) {
	userID := uuid.New()
	svc := &testOrdersService{
		pullChangesFn: func(ctx context.Context, since *time.Time, scope *uuid.UUID) (*orders.ChangeSet, error) {
			if scope == nil || *scope != userID {
				t.Fatalf("non-staff delta must be scoped to caller, got %v", scope)
			}
			if since == nil {
				t.Fatal("expected since to parse")
			}
			return &orders.ChangeSet{ServerTime: time.Now().UTC().Format(time.RFC3339Nano)}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/changes?since=2026-08-01T00:00:00Z&user_id="+uuid.NewString(), nil)
	req = authedRequest(req, userID, enums.RoleSubscriber)
	resp := httptest.NewRecorder()
	PullOrderChanges(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPullOrderChangesRejectsBadSince(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/changes?since=yesterday", nil)
	req = authedRequest(req, uuid.New(), enums.RoleUser)
	resp := httptest.NewRecorder()
	PullOrderChanges(&testOrdersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
