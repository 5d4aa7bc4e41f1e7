// internal/app/features/verifyaccounts/routes.go
package verifyaccounts

import (
	"github.com/eurofed/memberhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the verification endpoint; mounted under
// /api/admin/verify-accounts.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Get("/", h.Serve)

	return r
}
