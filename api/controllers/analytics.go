package controllers

import (
	"net/http"

	"github.com/gearhouse/autoparts-backend/api/responses"
	"github.com/gearhouse/autoparts-backend/internal/analytics"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
)

// Dashboard serves the staff analytics summary.
func Dashboard(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}
		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
