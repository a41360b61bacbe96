package middleware

import (
	"net/http"
	"strings"

	"github.com/gearhouse/autoparts-backend/internal/auth"
	"github.com/gearhouse/autoparts-backend/pkg/config"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
)

// Authenticate resolves the caller behind the session cookie, falling
// back to a bearer header for non-browser clients. Resolution is best
// effort: a missing or stale session leaves the request anonymous and
// the role gates downstream decide whether that is acceptable.
func Authenticate(cfg config.SessionConfig, svc auth.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cfg.CookieName)
			if token == "" || svc == nil {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := svc.Identify(r.Context(), token)
			if err != nil || identity == nil || identity.User == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), identity.User.ID, identity.Role)
			if logg != nil {
				ctx = logg.WithUserID(ctx, identity.User.ID.String())
				ctx = logg.WithActorRole(ctx, string(identity.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}

	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
