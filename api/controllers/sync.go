package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gearhouse/autoparts-backend/api/responses"
	"github.com/gearhouse/autoparts-backend/api/validators"
	syncsvc "github.com/gearhouse/autoparts-backend/internal/sync"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
)

// SyncTables lists the tables the reporter serves.
func SyncTables(reporter *syncsvc.Reporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reporter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync reporter unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"tables": reporter.Tables()})
	}
}

// SyncPull serves one table's delta. Without since it returns a full
// snapshot.
func SyncPull(reporter *syncsvc.Reporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reporter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync reporter unavailable"))
			return
		}

		table := strings.TrimSpace(r.URL.Query().Get("table"))
		if table == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "table query parameter required"))
			return
		}

		since, err := validators.ParseQuerySince(r, "since")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		changes, err := reporter.Pull(r.Context(), table, since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, changes)
	}
}

type bulkSyncRequest struct {
	Tables []string `json:"tables" validate:"required,min=1"`
	Since  *string  `json:"since"`
}

// SyncBulkPull serves several tables in one round trip. Unknown table
// names are skipped rather than failing the batch.
func SyncBulkPull(reporter *syncsvc.Reporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reporter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync reporter unavailable"))
			return
		}

		var payload bulkSyncRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		since, err := parseOptionalSince(payload.Since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		changes, err := reporter.BulkPull(r.Context(), payload.Tables, since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"changes": changes})
	}
}

func parseOptionalSince(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "since must be an RFC3339 timestamp")
	}
	return &ts, nil
}

// SyncSocket upgrades to the change-notification WebSocket.
func SyncSocket(hub *syncsvc.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync hub unavailable"))
			return
		}
		hub.ServeWS(w, r)
	}
}
