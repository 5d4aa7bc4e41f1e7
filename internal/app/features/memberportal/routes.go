// internal/app/features/memberportal/routes.go
package memberportal

import (
	"github.com/eurofed/memberhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the member portal; mounted under /api/member.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Get("/me", h.ServeMe)
	r.Get("/messages", h.ServeMessages)
	r.Get("/alerts", h.ServeAlerts)
	r.Post("/claim-invite", h.ServeClaimInvite)

	return r
}
