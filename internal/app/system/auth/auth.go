// internal/app/system/auth/auth.go
package auth

// Terminology: Identity
//   - UID: the auth-provider identity of a person (also the member's key,
//     and the account's document key once the account is canonical).
//   - Claims: capability flags (admin, member) the provider records on the
//     session. The status gate reads them and may grant the admin claim when
//     the database says admin but the session does not yet.

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey      = "is_authenticated"
	uidKey         = "uid"
	emailKey       = "user_email"
	nameKey        = "user_name"
	adminClaimKey  = "claim_admin"
	memberClaimKey = "claim_member"
)

// SessionUser is what we cache in the session and inject into r.Context().
type SessionUser struct {
	UID   string
	Email string
	Name  string

	// Capability claims recorded by the auth provider.
	AdminClaim  bool
	MemberClaim bool
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// SessionManager owns the cookie store and the session lifecycle. It is
// constructed once at startup and passed to the features that need it; there
// is no package-level store.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a SessionManager with signed cookies.
//
// In production (secure=true) cookies are Secure with SameSite=Lax; in local
// dev over http they are plain so the browser accepts them.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide >=32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// CurrentUser returns the user from the request context and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser injects the session user into context if signed in.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := m.store.Get(r, m.name)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				UID:         getString(sess, uidKey),
				Email:       getString(sess, emailKey),
				Name:        getString(sess, nameKey),
				AdminClaim:  getBool(sess, adminClaimKey),
				MemberClaim: getBool(sess, memberClaimKey),
			}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn writes the user into the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[isAuthKey] = true
	sess.Values[uidKey] = u.UID
	sess.Values[emailKey] = u.Email
	sess.Values[nameKey] = u.Name
	sess.Values[adminClaimKey] = u.AdminClaim
	sess.Values[memberClaimKey] = u.MemberClaim
	return sess.Save(r, w)
}

// SignOut clears the session.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Options.MaxAge = -1
	sess.Values = map[interface{}]interface{}{}
	return sess.Save(r, w)
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// HTML callers are redirected to sign-in; API callers get a plain 401.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		if wantsHTML(r) {
			http.Redirect(w, r, "/auth/google", http.StatusSeeOther)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session-backed claims                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionClaims exposes the capability claims of one request's session and
// lets the status gate repair claim drift by granting the admin claim. The
// grant rewrites the cookie, so the refreshed claims take effect on the next
// request; the in-context user is updated too so the current request sees
// the new flag.
type SessionClaims struct {
	mgr *SessionManager
	w   http.ResponseWriter
	r   *http.Request
}

// ClaimsFor returns the claims view for one request.
func (m *SessionManager) ClaimsFor(w http.ResponseWriter, r *http.Request) *SessionClaims {
	return &SessionClaims{mgr: m, w: w, r: r}
}

// Admin reports whether the session carries the admin claim.
func (c *SessionClaims) Admin() bool {
	u, ok := CurrentUser(c.r)
	return ok && u.AdminClaim
}

// Member reports whether the session carries the member claim.
func (c *SessionClaims) Member() bool {
	u, ok := CurrentUser(c.r)
	return ok && u.MemberClaim
}

// GrantAdmin attaches the admin claim to the session. Setting an already-set
// claim is a no-op.
func (c *SessionClaims) GrantAdmin(ctx context.Context) error {
	u, ok := CurrentUser(c.r)
	if !ok {
		return fmt.Errorf("grant admin claim: no signed-in user")
	}
	if u.AdminClaim {
		return nil
	}
	u.AdminClaim = true
	return c.mgr.SignIn(c.w, c.r, u)
}

// GrantMember attaches the member claim to the session. No-op if present.
func (c *SessionClaims) GrantMember(ctx context.Context) error {
	u, ok := CurrentUser(c.r)
	if !ok {
		return fmt.Errorf("grant member claim: no signed-in user")
	}
	if u.MemberClaim {
		return nil
	}
	u.MemberClaim = true
	return c.mgr.SignIn(c.w, c.r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// WithTestUser injects a user into the request context, bypassing the
// session middleware. Test helper only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func getBool(s *sessions.Session, key string) bool {
	if v, ok := s.Values[key].(bool); ok {
		return v
	}
	return false
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
