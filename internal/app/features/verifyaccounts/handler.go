// internal/app/features/verifyaccounts/handler.go
package verifyaccounts

import (
	"encoding/json"
	"net/http"

	"github.com/eurofed/memberhub/internal/app/migration"
	"github.com/eurofed/memberhub/internal/app/system/auditlog"
	"github.com/eurofed/memberhub/internal/app/system/gates"
	"github.com/eurofed/memberhub/internal/app/system/normalize"
	"go.uber.org/zap"
)

// Handler exposes the read-only account verification report.
type Handler struct {
	Verifier *migration.Verifier
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(verifier *migration.Verifier, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Verifier: verifier, Audit: audit, Log: logger}
}

// Serve handles GET /api/admin/verify-accounts. The default response is
// JSON; ?format=csv streams the same report as CSV.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	report, err := h.Verifier.Run(r.Context())
	if err != nil {
		h.Log.Error("verification run failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "verification failed",
		})
		return
	}

	h.Audit.VerificationRun(r.Context(), r, res.UID, "",
		len(report.Verified), len(report.Mismatches), len(report.Errors))

	if normalize.QueryParam(r.URL.Query().Get("format")) == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="account-verification.csv"`)
		if err := report.WriteCSV(w); err != nil {
			h.Log.Error("writing csv report failed", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"clean":   report.Clean(),
		"report":  report,
	})
}
