// internal/app/features/migrate/handler.go
package migrate

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/eurofed/memberhub/internal/app/migration"
	"github.com/eurofed/memberhub/internal/app/system/auditlog"
	"github.com/eurofed/memberhub/internal/app/system/gates"
	"go.uber.org/zap"
)

// Handler exposes the legacy-ID migration as an operator API.
type Handler struct {
	Engine *migration.Engine
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

func NewHandler(engine *migration.Engine, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Audit: audit, Log: logger}
}

type migrateRequest struct {
	Action  string `json:"action"`
	Confirm string `json:"confirm"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve handles POST /api/migrate-accounts.
//
// {"action":"dry-run"} (or no action) returns the migration plan without
// writing anything. {"action":"migrate","confirm":"…"} executes; the confirm
// field must match the engine's confirmation phrase exactly or the request
// fails with 400.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	// An absent body means dry-run; a present but malformed one is a 400.
	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid JSON body",
		})
		return
	}

	switch req.Action {
	case "", "dry-run":
		h.serveDryRun(w, r, res.UID)
	case "migrate":
		h.serveMigrate(w, r, res.UID, req.Confirm)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "action must be \"dry-run\" or \"migrate\"",
		})
	}
}

func (h *Handler) serveDryRun(w http.ResponseWriter, r *http.Request, actorUID string) {
	rows, err := h.Engine.Plan(r.Context())
	if err != nil {
		h.Log.Error("migration dry run failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to compute migration plan",
		})
		return
	}

	valid := 0
	for _, row := range rows {
		if row.IsValid {
			valid++
		}
	}
	h.Audit.MigrationDryRun(r.Context(), r, actorUID, "", len(rows), valid)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":                true,
		"action":                 "dry-run",
		"totalCorporateAccounts": len(rows),
		"migrationPlan":          rows,
	})
}

func (h *Handler) serveMigrate(w http.ResponseWriter, r *http.Request, actorUID, confirm string) {
	result, err := h.Engine.Execute(r.Context(), confirm)
	if errors.Is(err, migration.ErrConfirmationRequired) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "confirmation phrase required: " + migration.ConfirmPhrase,
		})
		return
	}
	if err != nil {
		h.Log.Error("migration run failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "migration failed to start",
		})
		return
	}

	h.Audit.MigrationExecuted(r.Context(), r, actorUID, result.RunID,
		result.SuccessfulMigrations, result.FailedMigrations)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":              true,
		"action":               "migrate",
		"runId":                result.RunID,
		"totalAccounts":        result.TotalAccounts,
		"successfulMigrations": result.SuccessfulMigrations,
		"failedMigrations":     result.FailedMigrations,
		"errors":               result.Errors,
	})
}
