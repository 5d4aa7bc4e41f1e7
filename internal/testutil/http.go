package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/eurofed/memberhub/internal/app/system/auth"
)

// TestUser represents caller identity data for testing HTTP handlers.
type TestUser struct {
	UID         string
	Name        string
	Email       string
	AdminClaim  bool
	MemberClaim bool
}

// AdminUser returns a TestUser whose session carries the admin claim.
func AdminUser() TestUser {
	return TestUser{
		UID:         "admin-uid-1",
		Name:        "Test Administrator",
		Email:       "admin@federation.eu",
		AdminClaim:  true,
		MemberClaim: true,
	}
}

// MemberUser returns a TestUser with the member claim only.
func MemberUser(uid string) TestUser {
	return TestUser{
		UID:         uid,
		Name:        "Test Member",
		Email:       uid + "@federation.eu",
		MemberClaim: true,
	}
}

// GuestUser returns a signed-in TestUser with no capability claims.
func GuestUser(uid string) TestUser {
	return TestUser{
		UID:   uid,
		Name:  "Test Guest",
		Email: uid + "@federation.eu",
	}
}

// WithUser adds a user to the request context, bypassing session middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		UID:         user.UID,
		Name:        user.Name,
		Email:       user.Email,
		AdminClaim:  user.AdminClaim,
		MemberClaim: user.MemberClaim,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, body io.Reader, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, body), user)
}
