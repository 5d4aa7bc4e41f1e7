// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/eurofed/memberhub/internal/app/access"
	"github.com/eurofed/memberhub/internal/app/features/authgoogle"
	"github.com/eurofed/memberhub/internal/app/features/companymembers"
	"github.com/eurofed/memberhub/internal/app/features/health"
	"github.com/eurofed/memberhub/internal/app/features/logout"
	"github.com/eurofed/memberhub/internal/app/features/memberportal"
	"github.com/eurofed/memberhub/internal/app/features/migrate"
	"github.com/eurofed/memberhub/internal/app/features/verifyaccounts"
	"github.com/eurofed/memberhub/internal/app/migration"
	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	auditstore "github.com/eurofed/memberhub/internal/app/store/audit"
	crossrefstore "github.com/eurofed/memberhub/internal/app/store/crossrefs"
	invitestore "github.com/eurofed/memberhub/internal/app/store/invites"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/app/store/oauthstate"
	"github.com/eurofed/memberhub/internal/app/system/auditlog"
	"github.com/eurofed/memberhub/internal/app/system/auth"
	"github.com/eurofed/memberhub/internal/app/system/mailer"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. MemberHub mounts the JSON API features
// (member portal, company member administration, account migration and
// verification) plus the Google OAuth sign-in flow and a health endpoint.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Session manager; secure cookies in production.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(
		appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores.
	accounts := accountstore.New(db)
	members := memberstore.New(db)
	crossrefs := crossrefstore.New(db)
	invites := invitestore.New(db, appCfg.InviteExpiry)

	// Audit trail.
	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:      appCfg.AuditLogAuth,
		Admin:     appCfg.AuditLogAdmin,
		Migration: appCfg.AuditLogMigration,
	})

	// Identity resolution and the capability gate behind every member route.
	resolver := access.NewResolver(accounts, members, logger)
	gate := access.NewGate(resolver, audit, logger)

	// Outbound mail: SMTP when a relay is configured, log-only otherwise.
	var sender mailer.Sender
	if appCfg.MailSMTPHost != "" {
		addr := fmt.Sprintf("%s:%d", appCfg.MailSMTPHost, appCfg.MailSMTPPort)
		from := appCfg.MailFrom
		if appCfg.MailFromName != "" {
			from = fmt.Sprintf("%s <%s>", appCfg.MailFromName, appCfg.MailFrom)
		}
		sender = mailer.NewSMTPSender(addr, from, appCfg.MailSMTPUser, appCfg.MailSMTPPass)
	} else {
		sender = &mailer.LogSender{Log: logger}
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := health.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", health.Routes(healthHandler))

	// Authentication.
	authHandler := authgoogle.NewHandler(
		sessionMgr, gate, oauthstate.New(db), audit,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger)
	r.Mount("/auth/google", authgoogle.Routes(authHandler))

	logoutHandler := logout.NewHandler(sessionMgr, audit, logger)
	r.Mount("/logout", logout.Routes(logoutHandler, sessionMgr))

	// Member portal.
	portalHandler := memberportal.NewHandler(
		gate, crossrefs, members, invites, sessionMgr, audit, logger)
	r.Mount("/api/member", memberportal.Routes(portalHandler, sessionMgr))

	// Company member administration.
	cmHandler := companymembers.NewHandler(
		accounts, members, invites, sender, audit, appCfg.SiteName, logger)
	r.Mount("/api/admin/company-members", companymembers.Routes(cmHandler, sessionMgr))

	// Legacy account migration and verification.
	engine := migration.NewEngine(deps.MongoClient, accounts, members, crossrefs, logger)
	migrateHandler := migrate.NewHandler(engine, audit, logger)
	r.Mount("/api/migrate-accounts", migrate.Routes(migrateHandler, sessionMgr))

	verifier := migration.NewVerifier(accounts, members, crossrefs, logger)
	verifyHandler := verifyaccounts.NewHandler(verifier, audit, logger)
	r.Mount("/api/admin/verify-accounts", verifyaccounts.Routes(verifyHandler, sessionMgr))

	return r, nil
}
