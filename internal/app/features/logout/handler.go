// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/eurofed/memberhub/internal/app/system/auditlog"
	"github.com/eurofed/memberhub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Audit:      audit,
	}
}

// ServeLogout handles GET /logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	uid := ""
	if u, ok := auth.CurrentUser(r); ok {
		uid = u.UID
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: clearing session failed", zap.Error(err), zap.String("uid", uid))
	}

	if uid != "" {
		h.Audit.SignOut(r.Context(), r, uid)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
