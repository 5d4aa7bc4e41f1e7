// internal/app/migration/engine.go

// Package migration holds the one-shot operator procedures that change
// account identity keys or shape, plus the read-only verifier that audits
// the result. These are administrative tools: they are expected to run
// rarely, under a single operator, against dozens of accounts.
package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	crossrefstore "github.com/eurofed/memberhub/internal/app/store/crossrefs"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/app/system/txn"
	"github.com/eurofed/memberhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ConfirmPhrase must be supplied verbatim to execute the legacy-ID migration.
// It is the only guard against accidental destructive invocation.
const ConfirmPhrase = "I understand this will permanently change account IDs"

// ErrConfirmationRequired is returned by Execute when the confirmation
// phrase is missing or does not match exactly.
var ErrConfirmationRequired = errors.New("migration requires the exact confirmation phrase")

// PlanRow describes one candidate account in a dry run.
type PlanRow struct {
	OldID            string `json:"oldId"`
	NewID            string `json:"newId"`
	OrganizationName string `json:"organizationName"`
	MemberCount      int    `json:"memberCount"`
	IsValid          bool   `json:"isValid"`
}

// Result tallies an executed run. Item failures are collected, never fatal
// to the rest of the run.
type Result struct {
	RunID                string   `json:"runId"`
	TotalAccounts        int      `json:"totalAccounts"`
	SuccessfulMigrations int      `json:"successfulMigrations"`
	FailedMigrations     int      `json:"failedMigrations"`
	Errors               []string `json:"errors"`
}

// Engine rewrites legacy generated account IDs to the primary contact's auth
// UID. Each account migrates in one transactional batch; the cross-reference
// rewrite that follows is best-effort.
type Engine struct {
	client    *mongo.Client
	accounts  *accountstore.Store
	members   *memberstore.Store
	crossrefs *crossrefstore.Store
	log       *zap.Logger
}

func NewEngine(client *mongo.Client, accounts *accountstore.Store, members *memberstore.Store, crossrefs *crossrefstore.Store, log *zap.Logger) *Engine {
	return &Engine{
		client:    client,
		accounts:  accounts,
		members:   members,
		crossrefs: crossrefs,
		log:       log,
	}
}

// candidate pairs a legacy account with its loaded members.
type candidate struct {
	account models.Account
	members []models.Member
}

func (e *Engine) loadCandidates(ctx context.Context) ([]candidate, error) {
	accts, err := e.accounts.FindLegacyCorporate(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading legacy corporate accounts: %w", err)
	}
	out := make([]candidate, 0, len(accts))
	for _, acct := range accts {
		mems, err := e.members.ListByAccount(ctx, acct.ID)
		if err != nil {
			return nil, fmt.Errorf("loading members of %s: %w", acct.ID, err)
		}
		out = append(out, candidate{account: acct, members: mems})
	}
	return out, nil
}

func (c candidate) primaryContact() (models.Member, bool) {
	for _, m := range c.members {
		if m.UID == c.account.PrimaryContactMemberID {
			return m, true
		}
	}
	return models.Member{}, false
}

// Plan computes the dry-run rows without writing anything. A row is valid
// only when the account names a primary contact and that contact exists
// among its members.
func (e *Engine) Plan(ctx context.Context) ([]PlanRow, error) {
	cands, err := e.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]PlanRow, 0, len(cands))
	for _, c := range cands {
		_, hasContact := c.primaryContact()
		rows = append(rows, PlanRow{
			OldID:            c.account.ID,
			NewID:            c.account.PrimaryContactMemberID,
			OrganizationName: c.account.OrganizationName,
			MemberCount:      len(c.members),
			IsValid:          c.account.PrimaryContactMemberID != "" && hasContact,
		})
	}
	return rows, nil
}

// Execute migrates every valid candidate. confirm must equal ConfirmPhrase.
// Each candidate is re-validated and migrated independently; a failed item is
// recorded in the result and the run moves on.
func (e *Engine) Execute(ctx context.Context, confirm string) (Result, error) {
	if confirm != ConfirmPhrase {
		return Result{}, ErrConfirmationRequired
	}

	runID := uuid.NewString()
	res := Result{RunID: runID}

	cands, err := e.loadCandidates(ctx)
	if err != nil {
		return res, err
	}
	res.TotalAccounts = len(cands)

	log := e.log.With(zap.String("run_id", runID))
	log.Info("legacy account migration starting", zap.Int("candidates", len(cands)))

	for _, c := range cands {
		if err := e.migrateOne(ctx, log, c); err != nil {
			res.FailedMigrations++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", c.account.ID, err))
			log.Warn("account migration failed",
				zap.String("account_id", c.account.ID),
				zap.Error(err))
			continue
		}
		res.SuccessfulMigrations++
	}

	log.Info("legacy account migration finished",
		zap.Int("migrated", res.SuccessfulMigrations),
		zap.Int("failed", res.FailedMigrations))
	return res, nil
}

// migrateOne performs the atomic batch for one account: new account document,
// members re-created under the new key, old members and old account deleted.
// The cross-reference rewrite afterwards is intentionally outside the batch.
func (e *Engine) migrateOne(ctx context.Context, log *zap.Logger, c candidate) error {
	oldID := c.account.ID
	newID := c.account.PrimaryContactMemberID

	if newID == "" {
		return errors.New("no primary contact member id")
	}
	if _, ok := c.primaryContact(); !ok {
		return fmt.Errorf("primary contact %s not found among members", newID)
	}
	exists, err := e.accounts.Exists(ctx, newID)
	if err != nil {
		return fmt.Errorf("checking target id: %w", err)
	}
	if exists {
		return fmt.Errorf("account %s already exists", newID)
	}

	now := time.Now().UTC()
	err = txn.WithTransaction(ctx, e.client, log, func(ctx context.Context) error {
		acct := c.account
		acct.ID = newID
		acct.UID = newID
		acct.PrimaryContactMemberID = ""
		acct.MigratedFrom = oldID
		acct.MigratedAt = &now
		if _, err := e.accounts.Create(ctx, acct); err != nil {
			return fmt.Errorf("creating account %s: %w", newID, err)
		}

		for _, m := range c.members {
			moved := m
			moved.AccountID = newID
			// Fold the legacy alias into the canonical flag; the alias is
			// never written on new documents.
			moved.IsAccountAdministrator = m.IsAdministrator()
			if _, err := e.members.Create(ctx, moved); err != nil {
				return fmt.Errorf("creating member %s: %w", m.UID, err)
			}
		}

		if _, err := e.members.DeleteByAccount(ctx, oldID); err != nil {
			return fmt.Errorf("deleting old members: %w", err)
		}
		if _, err := e.accounts.Delete(ctx, oldID); err != nil {
			return fmt.Errorf("deleting old account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Secondary step: repoint messages and alerts. A failure here leaves a
	// known, bounded inconsistency (stale user_id) that is logged, not
	// retried, and never rolls back the migration above.
	rw, err := e.crossrefs.RewriteUserID(ctx, oldID, newID)
	if err != nil {
		log.Warn("cross-reference rewrite failed",
			zap.String("old_id", oldID),
			zap.String("new_id", newID),
			zap.Error(err))
		return nil
	}
	log.Info("account migrated",
		zap.String("old_id", oldID),
		zap.String("new_id", newID),
		zap.Int("members", len(c.members)),
		zap.Int64("messages_rewritten", rw.Messages),
		zap.Int64("alerts_rewritten", rw.Alerts))
	return nil
}
