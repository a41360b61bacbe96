package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/api/middleware"
	"github.com/gearhouse/autoparts-backend/api/responses"
	"github.com/gearhouse/autoparts-backend/api/validators"
	authsvc "github.com/gearhouse/autoparts-backend/internal/auth"
	"github.com/gearhouse/autoparts-backend/pkg/config"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
)

type exchangeSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type authUserResponse struct {
	ID      uuid.UUID  `json:"id"`
	Email   string     `json:"email"`
	Name    string     `json:"name"`
	Picture *string    `json:"picture,omitempty"`
	Role    enums.Role `json:"role"`
}

func newAuthUserResponse(user *models.User, role enums.Role) authUserResponse {
	return authUserResponse{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.Picture,
		Role:    role,
	}
}

// ExchangeSession trades a provider session id for a server-side
// session and sets the httponly cookie browsers ride on afterwards.
func ExchangeSession(svc authsvc.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload exchangeSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ExchangeSession(r.Context(), payload.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, sessionCookie(cfg, result.Session.Token, result.Session.ExpiresAt))
		responses.WriteSuccess(w, newAuthUserResponse(result.User, result.Role))
	}
}

// Me returns the authenticated caller's profile and effective role.
func Me(svc authsvc.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token := requestSessionToken(r, cfg.CookieName)
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		identity, err := svc.Identify(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAuthUserResponse(identity.User, identity.Role))
	}
}

// Logout deletes the session row and expires the cookie.
func Logout(svc authsvc.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		if token := requestSessionToken(r, cfg.CookieName); token != "" {
			if err := svc.Logout(r.Context(), token); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		http.SetCookie(w, sessionCookie(cfg, "", time.Unix(0, 0)))
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func sessionCookie(cfg config.SessionConfig, token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func requestSessionToken(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	raw := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(raw) > len(prefix) && raw[:len(prefix)] == prefix {
		return raw[len(prefix):]
	}
	return ""
}

// currentUserID pulls the authenticated caller out of the request.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	id := middleware.UserIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}
