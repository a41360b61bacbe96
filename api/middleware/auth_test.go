package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/internal/auth"
	"github.com/gearhouse/autoparts-backend/pkg/config"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

type stubAuthService struct {
	identities map[string]*auth.Identity
}

func (s *stubAuthService) ExchangeSession(context.Context, string) (*auth.LoginResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAuthService) Identify(_ context.Context, token string) (*auth.Identity, error) {
	if identity, ok := s.identities[token]; ok {
		return identity, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found")
}

func (s *stubAuthService) Logout(context.Context, string) error { return nil }

func sessionCfg() config.SessionConfig {
	return config.SessionConfig{CookieName: "session_token"}
}

func identityCapture(t *testing.T) (http.Handler, *uuid.UUID, *enums.Role) {
	t.Helper()
	var gotUser uuid.UUID
	var gotRole enums.Role
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return handler, &gotUser, &gotRole
}

func TestAuthenticateFromCookie(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{identities: map[string]*auth.Identity{
		"tok-1": {User: &models.User{ID: userID}, Role: enums.RoleAdmin},
	}}

	handler, gotUser, gotRole := identityCapture(t)
	mw := Authenticate(sessionCfg(), svc, nil)(handler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session_token", Value: "tok-1"})
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, r)

	if *gotUser != userID {
		t.Fatalf("expected user %s in context, got %s", userID, *gotUser)
	}
	if *gotRole != enums.RoleAdmin {
		t.Fatalf("expected admin role, got %s", *gotRole)
	}
}

func TestAuthenticateBearerFallback(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{identities: map[string]*auth.Identity{
		"tok-2": {User: &models.User{ID: userID}, Role: enums.RoleUser},
	}}

	handler, gotUser, _ := identityCapture(t)
	mw := Authenticate(sessionCfg(), svc, nil)(handler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer tok-2")
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, r)

	if *gotUser != userID {
		t.Fatalf("expected user %s in context, got %s", userID, *gotUser)
	}
}

func TestAuthenticateUnknownTokenStaysAnonymous(t *testing.T) {
	svc := &stubAuthService{identities: map[string]*auth.Identity{}}

	handler, gotUser, gotRole := identityCapture(t)
	mw := Authenticate(sessionCfg(), svc, nil)(handler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session_token", Value: "stale"})
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("anonymous request should pass through, got %d", w.Code)
	}
	if *gotUser != uuid.Nil {
		t.Fatalf("expected anonymous context, got %s", *gotUser)
	}
	if *gotRole != enums.RoleGuest {
		t.Fatalf("expected guest role, got %s", *gotRole)
	}
}

func TestRequireRolesRejectsAnonymous(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})
	mw := RequireRoles(nil, enums.RoleOwner, enums.RoleAdmin)(handler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", w.Code)
	}
}

func TestRequireRolesRejectsWrongRole(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})
	mw := RequireRoles(nil, enums.RoleOwner)(handler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithIdentity(r.Context(), uuid.New(), enums.RoleSubscriber))
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong role, got %d", w.Code)
	}
}

func TestRequireRolesAllowsMatch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mw := RequireRoles(nil, enums.RoleOwner, enums.RolePartner)(handler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithIdentity(r.Context(), uuid.New(), enums.RolePartner))
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", w.Code)
	}
}
