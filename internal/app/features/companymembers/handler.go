// internal/app/features/companymembers/handler.go
package companymembers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	invitestore "github.com/eurofed/memberhub/internal/app/store/invites"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/app/system/auditlog"
	"github.com/eurofed/memberhub/internal/app/system/gates"
	"github.com/eurofed/memberhub/internal/app/system/htmlsanitize"
	"github.com/eurofed/memberhub/internal/app/system/mailer"
	"github.com/eurofed/memberhub/internal/app/system/normalize"
	"github.com/eurofed/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the administrative member-roster API.
type Handler struct {
	Accounts *accountstore.Store
	Members  *memberstore.Store
	Invites  *invitestore.Store
	Mailer   mailer.Sender
	Audit    *auditlog.Logger
	SiteName string
	Log      *zap.Logger
}

func NewHandler(accounts *accountstore.Store, members *memberstore.Store, invites *invitestore.Store, sender mailer.Sender, audit *auditlog.Logger, siteName string, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: accounts,
		Members:  members,
		Invites:  invites,
		Mailer:   sender,
		Audit:    audit,
		SiteName: siteName,
		Log:      logger,
	}
}

// memberJSON is the wire shape of one roster entry. isPrimaryContact is the
// legacy name for the administrator flag; both fields carry the same value
// so older clients keep working.
type memberJSON struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	PersonalName           string `json:"personalName"`
	JobTitle               string `json:"jobTitle,omitempty"`
	IsPrimaryContact       bool   `json:"isPrimaryContact"`
	IsAccountAdministrator bool   `json:"isAccountAdministrator"`
	AccountConfirmed       bool   `json:"accountConfirmed"`
}

// inviteJSON is the wire shape of one open invite on the roster. The code is
// never echoed back here.
type inviteJSON struct {
	Email        string    `json:"email"`
	PersonalName string    `json:"personalName"`
	JobTitle     string    `json:"jobTitle,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}

// ServeList handles GET /api/admin/company-members?companyId=<id>.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
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

	mems, err := h.Members.ListByAccount(r.Context(), companyID)
	if err != nil {
		h.Log.Error("loading members failed", zap.String("account_id", companyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load members")
		return
	}

	out := make([]memberJSON, 0, len(mems))
	for _, m := range mems {
		admin := m.IsAdministrator()
		out = append(out, memberJSON{
			ID:                     m.UID,
			Email:                  m.Email,
			PersonalName:           m.PersonalName,
			JobTitle:               m.JobTitle,
			IsPrimaryContact:       admin,
			IsAccountAdministrator: admin,
			AccountConfirmed:       m.AccountConfirmed,
		})
	}

	pending, err := h.Invites.PendingForAccount(r.Context(), companyID)
	if err != nil {
		h.Log.Error("loading invites failed", zap.String("account_id", companyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load invites")
		return
	}
	invOut := make([]inviteJSON, 0, len(pending))
	for _, inv := range pending {
		invOut = append(invOut, inviteJSON{
			Email:        inv.Email,
			PersonalName: inv.PersonalName,
			JobTitle:     inv.JobTitle,
			ExpiresAt:    inv.ExpiresAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"companyId":        acct.ID,
		"organizationName": acct.OrganizationName,
		"members":          out,
		"pendingInvites":   invOut,
	})
}

type inviteRequest struct {
	CompanyID    string `json:"companyId"`
	Email        string `json:"email"`
	PersonalName string `json:"personalName"`
	JobTitle     string `json:"jobTitle"`
}

// ServeInvite handles POST /api/admin/company-members/invite.
// The invite code is returned to the caller and, when a mail sender is
// configured, also emailed to the invitee.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	companyID := normalize.QueryParam(req.CompanyID)
	email := normalize.Email(req.Email)
	name := htmlsanitize.Plain(normalize.Name(req.PersonalName))
	title := htmlsanitize.Plain(normalize.Name(req.JobTitle))

	if companyID == "" || email == "" || name == "" {
		writeError(w, http.StatusBadRequest, "companyId, email and personalName are required")
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

	invite, code, err := h.Invites.Create(r.Context(), acct.ID, email, name, title)
	if err != nil {
		h.Log.Error("creating invite failed", zap.String("account_id", acct.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}

	h.Audit.MemberInvited(r.Context(), r, res.UID, acct.ID, email)
	h.sendInviteEmail(r, acct.OrganizationName, email, code)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"invite": map[string]any{
			"email":     invite.Email,
			"expiresAt": invite.ExpiresAt,
		},
		"code": code,
	})
}

func (h *Handler) sendInviteEmail(r *http.Request, orgName, email, code string) {
	if h.Mailer == nil {
		return
	}
	msg := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:         h.SiteName,
		OrganizationName: orgName,
		Code:             code,
	})
	msg.To = email
	if err := h.Mailer.Send(r.Context(), msg); err != nil {
		// The code is still in the response; delivery failure is not fatal.
		h.Log.Warn("invite email delivery failed", zap.String("email", email), zap.Error(err))
	}
}

type removeRequest struct {
	CompanyID string `json:"companyId"`
	MemberID  string `json:"memberId"`
}

// ServeRemove handles POST /api/admin/company-members/remove.
// The account administrator cannot be removed through this endpoint.
func (h *Handler) ServeRemove(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CompanyID == "" || req.MemberID == "" {
		writeError(w, http.StatusBadRequest, "companyId and memberId are required")
		return
	}

	member, err := h.Members.GetByAccountAndUID(r.Context(), req.CompanyID, req.MemberID)
	if errors.Is(err, memberstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		h.Log.Error("loading member failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load member")
		return
	}
	if member.IsAdministrator() {
		writeError(w, http.StatusBadRequest, "the account administrator cannot be removed")
		return
	}

	if err := h.Members.Delete(r.Context(), req.CompanyID, req.MemberID); err != nil {
		h.Log.Error("removing member failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}

	h.Audit.MemberRemoved(r.Context(), r, res.UID, req.CompanyID, req.MemberID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type statusRequest struct {
	CompanyID string `json:"companyId"`
	Status    string `json:"status"`
}

// ServeSetStatus handles POST /api/admin/company-members/status: moves an
// account through the membership workflow (pending, invoice_sent, approved,
// rejected, guest, admin).
func (h *Handler) ServeSetStatus(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	companyID := normalize.QueryParam(req.CompanyID)
	newStatus := models.ParseStatus(req.Status)
	if companyID == "" || newStatus == models.StatusUnknown {
		writeError(w, http.StatusBadRequest, "companyId and a recognized status are required")
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

	if err := h.Accounts.UpdateStatus(r.Context(), acct.ID, newStatus); err != nil {
		h.Log.Error("updating status failed", zap.String("account_id", acct.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	h.Audit.StatusChanged(r.Context(), r, res.UID, acct.ID, acct.Status, string(newStatus))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"companyId": acct.ID,
		"status":    string(newStatus),
	})
}
