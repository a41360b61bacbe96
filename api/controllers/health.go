package controllers

import (
	"context"
	"net/http"

	"github.com/gearhouse/autoparts-backend/api/responses"
	"github.com/gearhouse/autoparts-backend/pkg/config"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
)

// Pinger is a backing dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Gearhouse-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Gearhouse-Env", cfg.App.Env)
		for _, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "readiness check failed"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
