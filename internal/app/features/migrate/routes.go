// internal/app/features/migrate/routes.go
package migrate

import (
	"github.com/eurofed/memberhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the migration endpoint; mounted under
// /api/migrate-accounts.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Post("/", h.Serve)

	return r
}
