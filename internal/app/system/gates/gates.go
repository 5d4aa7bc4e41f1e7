// Package gates provides authorization gate functions for API handlers.
// Gates check authentication and capability claims, writing a JSON error
// when checks fail so handlers can simply return on !OK.
//
// Route-level middleware (auth.RequireSignedIn) covers whole route groups;
// gates are for handlers that need a capability check the route group does
// not already enforce.
package gates

import (
	"encoding/json"
	"net/http"

	"github.com/eurofed/memberhub/internal/app/system/auth"
)

// Result contains the outcome of a gate check.
type Result struct {
	UID   string
	Email string
	OK    bool
}

type errBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errBody{Success: false, Error: msg})
}

// RequireSignedIn ensures a caller is authenticated. On failure it writes a
// 401 and returns OK=false.
func RequireSignedIn(w http.ResponseWriter, r *http.Request) Result {
	u, ok := auth.CurrentUser(r)
	if !ok {
		deny(w, http.StatusUnauthorized, "authentication required")
		return Result{OK: false}
	}
	return Result{UID: u.UID, Email: u.Email, OK: true}
}

// RequireAdmin ensures the caller is authenticated and carries the admin
// claim. 401 when unauthenticated, 403 when not an administrator.
func RequireAdmin(w http.ResponseWriter, r *http.Request) Result {
	u, ok := auth.CurrentUser(r)
	if !ok {
		deny(w, http.StatusUnauthorized, "authentication required")
		return Result{OK: false}
	}
	if !u.AdminClaim {
		deny(w, http.StatusForbidden, "administrator access required")
		return Result{OK: false}
	}
	return Result{UID: u.UID, Email: u.Email, OK: true}
}
