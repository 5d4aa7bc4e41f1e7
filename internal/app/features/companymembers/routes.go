// internal/app/features/companymembers/routes.go
package companymembers

import (
	"github.com/eurofed/memberhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the admin roster endpoints; mounted under
// /api/admin/company-members.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/invite", h.ServeInvite)
	r.Post("/invite-csv", h.ServeInviteCSV)
	r.Post("/remove", h.ServeRemove)
	r.Post("/status", h.ServeSetStatus)

	return r
}
