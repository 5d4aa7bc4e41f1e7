// internal/app/features/companymembers/invitecsv.go
package companymembers

import (
	"errors"
	"net/http"

	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	"github.com/eurofed/memberhub/internal/app/system/csvutil"
	"github.com/eurofed/memberhub/internal/app/system/gates"
	"github.com/eurofed/memberhub/internal/app/system/normalize"
	"go.uber.org/zap"
)

// csvInviteResult tallies one bulk upload.
type csvInviteResult struct {
	Success   bool               `json:"success"`
	Invited   int                `json:"invited"`
	Failed    int                `json:"failed"`
	RowErrors []csvutil.RowError `json:"rowErrors,omitempty"`
	Errors    []string           `json:"errors,omitempty"`
}

// ServeInviteCSV handles POST /api/admin/company-members/invite-csv?companyId=<id>.
// The body is the CSV itself (Full Name, Email, Job Title). Invalid rows are
// reported and skipped; valid rows each get an invite. Codes are emailed
// when a sender is configured, never returned in bulk responses.
func (h *Handler) ServeInviteCSV(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	companyID := normalize.QueryParam(r.URL.Query().Get("companyId"))
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "companyId is required")
		return
	}

	acct, err := h.Accounts.GetByID(r.Context(), companyID)
	if errors.Is(err, accountstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		h.Log.Error("loading account failed", zap.String("account_id", companyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	body := http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	rows, rowErrs, err := csvutil.ParseInvitesCSV(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not parse CSV: "+err.Error())
		return
	}

	result := csvInviteResult{Success: true, RowErrors: rowErrs}
	for _, row := range rows {
		_, code, err := h.Invites.Create(r.Context(), acct.ID, row.Email, row.PersonalName, row.JobTitle)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, row.Email+": "+err.Error())
			continue
		}
		result.Invited++
		h.Audit.MemberInvited(r.Context(), r, res.UID, acct.ID, row.Email)
		h.sendInviteEmail(r, acct.OrganizationName, row.Email, code)
	}

	writeJSON(w, http.StatusOK, result)
}
