// internal/app/access/gate.go
package access

import (
	"context"
	"errors"

	"github.com/eurofed/memberhub/internal/app/system/auditlog"
	"github.com/eurofed/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Capabilities are the member-scoped rights issued by the gate. Either both
// fields reflect the account's status and the error is nil, or the error is
// non-nil and both fields are false. Never a mix.
type Capabilities struct {
	IsAdmin         bool
	HasMemberAccess bool
}

// Claims is the session-backed capability store the gate reads and, for the
// admin self-heal, writes. Granting an already-granted claim is a no-op.
type Claims interface {
	Admin() bool
	GrantAdmin(ctx context.Context) error
}

// Gate classifies an account's status into caller capabilities. It never
// writes status; approval, invoicing and rejection happen in administrative
// workflows elsewhere.
type Gate struct {
	resolver *Resolver
	audit    *auditlog.Logger
	log      *zap.Logger
}

func NewGate(resolver *Resolver, audit *auditlog.Logger, log *zap.Logger) *Gate {
	return &Gate{resolver: resolver, audit: audit, log: log}
}

// Evaluate resolves uid to an account and classifies its status.
//
// Soft failures (ErrAccountNotFound, ErrAccountPending,
// ErrAccountInvoicePending, *NotApprovedError) pass through so callers can
// render a status banner. Every other failure is logged and normalized to
// ErrTryAgainLater; the raw error never reaches the caller.
func (g *Gate) Evaluate(ctx context.Context, uid string, claims Claims) (Capabilities, models.Account, error) {
	acct, _, err := g.resolver.Resolve(ctx, uid)
	if errors.Is(err, ErrAccountNotFound) {
		return Capabilities{}, models.Account{}, ErrAccountNotFound
	}
	if err != nil {
		g.log.Error("account resolution failed", zap.String("uid", uid), zap.Error(err))
		return Capabilities{}, models.Account{}, ErrTryAgainLater
	}

	caps, err := g.classify(ctx, acct, claims)
	if err != nil {
		return Capabilities{}, acct, err
	}
	return caps, acct, nil
}

func (g *Gate) classify(ctx context.Context, acct models.Account, claims Claims) (Capabilities, error) {
	status := models.ParseStatus(acct.Status)
	switch status {
	case models.StatusApproved:
		return Capabilities{HasMemberAccess: true}, nil

	case models.StatusAdmin:
		g.healAdminClaim(ctx, acct, claims)
		return Capabilities{IsAdmin: true, HasMemberAccess: true}, nil

	case models.StatusPending:
		return Capabilities{}, ErrAccountPending

	case models.StatusInvoiceSent:
		return Capabilities{}, ErrAccountInvoicePending

	case models.StatusGuest, models.StatusRejected, models.StatusUnknown:
		return Capabilities{}, &NotApprovedError{Status: status, RawStatus: acct.Status}

	default:
		// ParseStatus cannot produce anything else, but an unrecognized
		// value still must not crash the gate.
		return Capabilities{}, &NotApprovedError{Status: status, RawStatus: acct.Status}
	}
}

// healAdminClaim repairs the drift where the database says admin but the
// session claims do not yet. At most one grant attempt per evaluation, and
// only for admin status. A failed grant is logged and otherwise ignored; the
// database remains authoritative for the capabilities returned.
func (g *Gate) healAdminClaim(ctx context.Context, acct models.Account, claims Claims) {
	if claims == nil || claims.Admin() {
		return
	}
	if err := claims.GrantAdmin(ctx); err != nil {
		g.log.Warn("admin claim grant failed",
			zap.String("account_id", acct.ID),
			zap.Error(err))
		return
	}
	g.log.Info("admin claim granted from account status",
		zap.String("account_id", acct.ID))
	g.audit.AdminClaimGranted(ctx, nil, acct.UID, acct.ID)
}
