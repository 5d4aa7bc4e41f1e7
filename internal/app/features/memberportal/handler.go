// internal/app/features/memberportal/handler.go
package memberportal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eurofed/memberhub/internal/app/access"
	crossrefstore "github.com/eurofed/memberhub/internal/app/store/crossrefs"
	invitestore "github.com/eurofed/memberhub/internal/app/store/invites"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/app/system/auditlog"
	"github.com/eurofed/memberhub/internal/app/system/auth"
	"github.com/eurofed/memberhub/internal/app/system/gates"
	"github.com/eurofed/memberhub/internal/app/system/htmlsanitize"
	"github.com/eurofed/memberhub/internal/app/system/normalize"
	"github.com/eurofed/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the member-facing portal API. Every data endpoint runs the
// caller through the status gate first; a denied status is not an HTTP
// error, it is a banner payload.
type Handler struct {
	Gate       *access.Gate
	Crossrefs  *crossrefstore.Store
	Members    *memberstore.Store
	Invites    *invitestore.Store
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(gate *access.Gate, crossrefs *crossrefstore.Store, members *memberstore.Store, invites *invitestore.Store, sm *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Gate:       gate,
		Crossrefs:  crossrefs,
		Members:    members,
		Invites:    invites,
		SessionMgr: sm,
		Audit:      audit,
		Log:        logger,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusPayload is the banner body for a caller the gate turned away. The
// session stays valid; only member capabilities are withheld.
type statusPayload struct {
	Success      bool   `json:"success"`
	MemberAccess bool   `json:"memberAccess"`
	StatusCode   string `json:"statusCode"`
	Message      string `json:"message"`
}

// evaluate runs the caller through the gate. When access is denied it writes
// the response itself and returns ok=false: soft statuses as 200 banner
// payloads, normalized hard failures as 503.
func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request, uid string) (access.Capabilities, models.Account, bool) {
	claims := h.SessionMgr.ClaimsFor(w, r)
	caps, acct, err := h.Gate.Evaluate(r.Context(), uid, claims)
	if err == nil {
		return caps, acct, true
	}

	code := access.Code(err)
	status := http.StatusOK
	if code == "try_again_later" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, statusPayload{
		Success:      status == http.StatusOK,
		MemberAccess: false,
		StatusCode:   code,
		Message:      access.Message(err),
	})
	return access.Capabilities{}, models.Account{}, false
}

// ServeMe handles GET /api/member/me: the caller's account and capability
// snapshot, or the status banner.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireSignedIn(w, r)
	if !res.OK {
		return
	}
	caps, acct, ok := h.evaluate(w, r, res.UID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"memberAccess": caps.HasMemberAccess,
		"isAdmin":      caps.IsAdmin,
		"account": map[string]any{
			"id":               acct.ID,
			"organizationName": acct.OrganizationName,
			"membershipType":   acct.MembershipType,
			"status":           acct.Status,
		},
	})
}

// ServeMessages handles GET /api/member/messages.
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireSignedIn(w, r)
	if !res.OK {
		return
	}
	caps, acct, ok := h.evaluate(w, r, res.UID)
	if !ok {
		return
	}

	msgs, err := h.Crossrefs.MessagesForUser(r.Context(), acct.ID)
	if err != nil {
		h.Log.Error("loading messages failed", zap.String("account_id", acct.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to load messages",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"memberAccess": true,
		"isAdmin":      caps.IsAdmin,
		"messages":     msgs,
	})
}

// ServeAlerts handles GET /api/member/alerts.
func (h *Handler) ServeAlerts(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireSignedIn(w, r)
	if !res.OK {
		return
	}
	caps, acct, ok := h.evaluate(w, r, res.UID)
	if !ok {
		return
	}

	alerts, err := h.Crossrefs.AlertsForUser(r.Context(), acct.ID)
	if err != nil {
		h.Log.Error("loading alerts failed", zap.String("account_id", acct.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to load alerts",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"memberAccess": true,
		"isAdmin":      caps.IsAdmin,
		"alerts":       alerts,
	})
}

type claimRequest struct {
	CompanyID string `json:"companyId"`
	Code      string `json:"code"`
}

// ServeClaimInvite handles POST /api/member/claim-invite. The invite is
// matched by the caller's session email; on success the caller becomes a
// confirmed member of the account and gains the member claim.
func (h *Handler) ServeClaimInvite(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireSignedIn(w, r)
	if !res.OK {
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON body"})
		return
	}
	companyID := normalize.QueryParam(req.CompanyID)
	if companyID == "" || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "companyId and code are required"})
		return
	}

	invite, err := h.Invites.Claim(r.Context(), companyID, normalize.Email(res.Email), req.Code)
	switch {
	case errors.Is(err, invitestore.ErrNotFound):
		h.Audit.InviteClaimed(r.Context(), r, res.UID, companyID, false, "no pending invite")
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "no pending invite for this email"})
		return
	case errors.Is(err, invitestore.ErrInvalidCode):
		h.Audit.InviteClaimed(r.Context(), r, res.UID, companyID, false, "invalid code")
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid invite code"})
		return
	case errors.Is(err, invitestore.ErrTooManyAttempts):
		h.Audit.InviteClaimed(r.Context(), r, res.UID, companyID, false, "too many attempts")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"success": false, "error": "too many attempts, request a new invite"})
		return
	case err != nil:
		h.Log.Error("claiming invite failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to claim invite"})
		return
	}

	member := models.Member{
		AccountID:        companyID,
		UID:              res.UID,
		Email:            invite.Email,
		PersonalName:     htmlsanitize.Plain(invite.PersonalName),
		JobTitle:         htmlsanitize.Plain(invite.JobTitle),
		AccountConfirmed: true,
	}
	if _, err := h.Members.Create(r.Context(), member); err != nil {
		if !errors.Is(err, memberstore.ErrDuplicateMember) {
			h.Log.Error("creating member failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to join account"})
			return
		}
		// Already on the roster (for example a pre-provisioned record that
		// was never confirmed). The claim was valid, so confirm it instead.
		if err := h.Members.SetAccountConfirmed(r.Context(), companyID, res.UID); err != nil {
			h.Log.Error("confirming member failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to join account"})
			return
		}
	}

	if err := h.SessionMgr.ClaimsFor(w, r).GrantMember(r.Context()); err != nil {
		h.Log.Warn("granting member claim failed", zap.Error(err))
	}
	h.Audit.InviteClaimed(r.Context(), r, res.UID, companyID, true, "")

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "companyId": companyID})
}
