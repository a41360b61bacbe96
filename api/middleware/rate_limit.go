package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gearhouse/autoparts-backend/api/responses"
	"github.com/gearhouse/autoparts-backend/pkg/config"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
)

type limiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimiter throttles clients with a fixed window per IP and route.
type RateLimiter struct {
	cfg   config.RateLimitConfig
	store limiterStore
	logg  *logger.Logger
	now   func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, store limiterStore, logg *logger.Logger) *RateLimiter {
	return &RateLimiter{cfg: cfg, store: store, logg: logg, now: time.Now}
}

func (rl *RateLimiter) enabled() bool {
	return rl != nil && rl.store != nil && rl.cfg.Window > 0 && rl.cfg.MaxRequests > 0
}

// Limit enforces the window for the named endpoint group.
func (rl *RateLimiter) Limit(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !rl.enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			bucket := rl.now().Unix() / int64(rl.cfg.Window.Seconds())
			scope := fmt.Sprintf("%s:%s:%d", endpoint, clientIP(r), bucket)

			allowed, count, err := rl.store.FixedWindowAllow(ctx, scope, int64(rl.cfg.MaxRequests), rl.cfg.Window)
			if err != nil {
				// The limiter must not take the API down with it.
				if rl.logg != nil {
					rl.logg.Warn(rl.logg.WithField(ctx, "endpoint", endpoint), "rate_limit.store_unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				if rl.logg != nil {
					logCtx := rl.logg.WithFields(ctx, map[string]any{
						"endpoint": endpoint,
						"attempts": count,
						"limit":    rl.cfg.MaxRequests,
					})
					rl.logg.Warn(logCtx, "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
