// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/eurofed/memberhub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (sign-in, sign-out, claim grants).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin action events (invites, member removal, status changes).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
	// Migration controls logging for migration and verification runs.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Migration string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.AccountID != "" {
		fields = append(fields, zap.String("account_id", event.AccountID))
	}
	if event.ActorUID != "" {
		fields = append(fields, zap.String("actor_uid", event.ActorUID))
	}
	if event.RunID != "" {
		fields = append(fields, zap.String("run_id", event.RunID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	// Determine which config setting applies based on event category
	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryMigration:
		setting = l.config.Migration
	default:
		setting = "all" // Default to logging everything for unknown categories
	}

	// Check if logging is disabled for this category
	if setting == "off" {
		return
	}

	// Log to zap if configured
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	// Log to MongoDB if configured
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// SignInSuccess logs a successful sign-in and the account it resolved to.
func (l *Logger) SignInSuccess(ctx context.Context, r *http.Request, uid, accountID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignInSuccess,
		AccountID: accountID,
		ActorUID:  uid,
		IP:        getClientIP(r),
		Success:   true,
	})
}

// SignInNoAccount logs a sign-in whose identity resolved to no account.
func (l *Logger) SignInNoAccount(ctx context.Context, r *http.Request, uid, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSignInNoAccount,
		ActorUID:      uid,
		IP:            getClientIP(r),
		Success:       false,
		FailureReason: "no account for identity",
		Details: map[string]string{
			"email": email,
		},
	})
}

// SignOut logs a sign-out.
func (l *Logger) SignOut(ctx context.Context, r *http.Request, uid string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignOut,
		ActorUID:  uid,
		IP:        getClientIP(r),
		Success:   true,
	})
}

// AdminClaimGranted logs the one-time grant of the admin session claim.
func (l *Logger) AdminClaimGranted(ctx context.Context, r *http.Request, uid, accountID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventAdminClaimGranted,
		AccountID: accountID,
		ActorUID:  uid,
		IP:        getClientIP(r),
		Success:   true,
	})
}

// --- Admin Action Events ---

// MemberInvited logs sending a member invite for an account.
func (l *Logger) MemberInvited(ctx context.Context, r *http.Request, actorUID, accountID, inviteeEmail string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberInvited,
		AccountID: accountID,
		ActorUID:  actorUID,
		IP:        getClientIP(r),
		Success:   true,
		Details: map[string]string{
			"invitee_email": inviteeEmail,
		},
	})
}

// InviteClaimed logs a member claiming an invite code.
func (l *Logger) InviteClaimed(ctx context.Context, r *http.Request, uid, accountID string, success bool, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventInviteClaimed,
		AccountID:     accountID,
		ActorUID:      uid,
		IP:            getClientIP(r),
		Success:       success,
		FailureReason: reason,
	})
}

// MemberRemoved logs removing a member from an account.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorUID, accountID, memberUID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberRemoved,
		AccountID: accountID,
		ActorUID:  actorUID,
		IP:        getClientIP(r),
		Success:   true,
		Details: map[string]string{
			"member_uid": memberUID,
		},
	})
}

// StatusChanged logs an account status transition.
func (l *Logger) StatusChanged(ctx context.Context, r *http.Request, actorUID, accountID, oldStatus, newStatus string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventStatusChanged,
		AccountID: accountID,
		ActorUID:  actorUID,
		IP:        getClientIP(r),
		Success:   true,
		Details: map[string]string{
			"old_status": oldStatus,
			"new_status": newStatus,
		},
	})
}

// --- Migration Events ---

// MigrationDryRun logs a planning pass over the legacy accounts.
func (l *Logger) MigrationDryRun(ctx context.Context, r *http.Request, actorUID, runID string, total, valid int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMigration,
		EventType: audit.EventMigrationDryRun,
		ActorUID:  actorUID,
		RunID:     runID,
		IP:        getClientIP(r),
		Success:   true,
		Details: map[string]string{
			"total_accounts": strconv.Itoa(total),
			"valid_accounts": strconv.Itoa(valid),
		},
	})
}

// MigrationExecuted logs the outcome of an executed migration run.
func (l *Logger) MigrationExecuted(ctx context.Context, r *http.Request, actorUID, runID string, migrated, failed int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMigration,
		EventType: audit.EventMigrationExecuted,
		ActorUID:  actorUID,
		RunID:     runID,
		IP:        getClientIP(r),
		Success:   failed == 0,
		Details: map[string]string{
			"migrated": strconv.Itoa(migrated),
			"failed":   strconv.Itoa(failed),
		},
	})
}

// UnifiedMigrationExecuted logs the outcome of a flat-to-grouped migration run.
func (l *Logger) UnifiedMigrationExecuted(ctx context.Context, r *http.Request, actorUID, runID string, corporate, individual, failed int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMigration,
		EventType: audit.EventUnifiedMigration,
		ActorUID:  actorUID,
		RunID:     runID,
		IP:        getClientIP(r),
		Success:   failed == 0,
		Details: map[string]string{
			"corporate_accounts":  strconv.Itoa(corporate),
			"individual_accounts": strconv.Itoa(individual),
			"failed":              strconv.Itoa(failed),
		},
	})
}

// VerificationRun logs the outcome of an account verification sweep.
func (l *Logger) VerificationRun(ctx context.Context, r *http.Request, actorUID, runID string, verified, mismatched, errored int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMigration,
		EventType: audit.EventVerificationRun,
		ActorUID:  actorUID,
		RunID:     runID,
		IP:        getClientIP(r),
		Success:   mismatched == 0 && errored == 0,
		Details: map[string]string{
			"verified":   strconv.Itoa(verified),
			"mismatched": strconv.Itoa(mismatched),
			"errored":    strconv.Itoa(errored),
		},
	})
}
