// internal/app/migration/unified.go
package migration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	legacystore "github.com/eurofed/memberhub/internal/app/store/legacy"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/app/system/txn"
	"github.com/eurofed/memberhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UnifiedResult tallies a flat-to-grouped migration run.
type UnifiedResult struct {
	RunID              string   `json:"runId"`
	TotalUsers         int      `json:"totalUsers"`
	CorporateAccounts  int      `json:"corporateAccounts"`
	IndividualAccounts int      `json:"individualAccounts"`
	Failed             int      `json:"failed"`
	Errors             []string `json:"errors"`
}

// Unifier reshapes flat legacy user records into the account/member model.
// Corporate users are grouped by organization name into one account with a
// member per user; individual users keep their document and only gain an
// organization name and a migration stamp.
type Unifier struct {
	client   *mongo.Client
	legacy   *legacystore.Store
	accounts *accountstore.Store
	members  *memberstore.Store
	log      *zap.Logger
}

func NewUnifier(client *mongo.Client, legacy *legacystore.Store, accounts *accountstore.Store, members *memberstore.Store, log *zap.Logger) *Unifier {
	return &Unifier{
		client:   client,
		legacy:   legacy,
		accounts: accounts,
		members:  members,
		log:      log,
	}
}

// orgGroup is one corporate organization's worth of flat users, in load
// order: the first user is the template for account-level fields and becomes
// the account administrator.
type orgGroup struct {
	name  string
	users []models.LegacyUser
}

// Run executes the full migration. One organization (or one individual) is
// the unit of failure; the run continues past failed units.
func (u *Unifier) Run(ctx context.Context) (UnifiedResult, error) {
	runID := uuid.NewString()
	res := UnifiedResult{RunID: runID}

	users, err := u.legacy.Users(ctx)
	if err != nil {
		return res, fmt.Errorf("loading legacy users: %w", err)
	}
	apps, err := u.legacy.Applications(ctx)
	if err != nil {
		return res, fmt.Errorf("loading applications: %w", err)
	}
	res.TotalUsers = len(users)

	log := u.log.With(zap.String("run_id", runID))
	log.Info("unified migration starting", zap.Int("users", len(users)))

	// Partition: corporates grouped by folded organization name, order of
	// first appearance preserved so the template member is deterministic.
	var groups []*orgGroup
	byName := make(map[string]*orgGroup)
	var individuals []models.LegacyUser

	for _, user := range users {
		if user.MembershipType != models.MembershipCorporate {
			individuals = append(individuals, user)
			continue
		}
		key := text.Fold(user.OrganizationName)
		g, ok := byName[key]
		if !ok {
			g = &orgGroup{name: user.OrganizationName}
			byName[key] = g
			groups = append(groups, g)
		}
		g.users = append(g.users, user)
	}

	for _, g := range groups {
		if err := u.migrateGroup(ctx, log, g, apps); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", g.name, err))
			log.Warn("organization migration failed",
				zap.String("organization", g.name),
				zap.Error(err))
			continue
		}
		res.CorporateAccounts++
	}

	for _, user := range individuals {
		if err := u.migrateIndividual(ctx, user, apps); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", user.ID, err))
			log.Warn("individual migration failed",
				zap.String("user_id", user.ID),
				zap.Error(err))
			continue
		}
		res.IndividualAccounts++
	}

	log.Info("unified migration finished",
		zap.Int("corporate_accounts", res.CorporateAccounts),
		zap.Int("individual_accounts", res.IndividualAccounts),
		zap.Int("failed", res.Failed))
	return res, nil
}

// migrateGroup writes one account plus a member per user and deletes the
// flat originals, all in one batch.
func (u *Unifier) migrateGroup(ctx context.Context, log *zap.Logger, g *orgGroup, apps map[string]models.MemberApplication) error {
	now := time.Now().UTC()
	template := g.users[0]
	accountID := synthesizeAccountID(g.name, now)

	acct := models.Account{
		ID:               accountID,
		Status:           template.Status,
		MembershipType:   models.MembershipCorporate,
		OrganizationName: g.name,
		// The template user is the primary contact; the legacy-ID engine
		// later rewrites this account's key to that member's auth UID.
		PrimaryContactMemberID: template.ID,
		MigratedAt:             &now,
	}
	if app, ok := apps[template.ID]; ok {
		acct.OrganizationType = app.OrganizationType
		acct.Address = app.Address
		acct.Portfolio = app.Portfolio
		acct.Regulatory = app.Regulatory
	}

	return txn.WithTransaction(ctx, u.client, log, func(ctx context.Context) error {
		if _, err := u.accounts.Create(ctx, acct); err != nil {
			return fmt.Errorf("creating account: %w", err)
		}
		for i, user := range g.users {
			m := models.Member{
				AccountID:              accountID,
				UID:                    user.ID,
				Email:                  user.Email,
				PersonalName:           user.PersonalName,
				JobTitle:               user.JobTitle,
				IsAccountAdministrator: i == 0,
				AccountConfirmed:       true,
			}
			if _, err := u.members.Create(ctx, m); err != nil {
				return fmt.Errorf("creating member %s: %w", user.ID, err)
			}
			if err := u.legacy.DeleteUser(ctx, user.ID); err != nil {
				return fmt.Errorf("deleting flat user %s: %w", user.ID, err)
			}
		}
		return nil
	})
}

// migrateIndividual backfills the flat document in place; no key or shape
// change.
func (u *Unifier) migrateIndividual(ctx context.Context, user models.LegacyUser, apps map[string]models.MemberApplication) error {
	orgName := user.OrganizationName
	if app, ok := apps[user.ID]; ok && app.OrganizationName != "" {
		orgName = app.OrganizationName
	}
	if orgName == "" {
		orgName = user.PersonalName
	}
	return u.legacy.MarkMigrated(ctx, user.ID, orgName, time.Now().UTC())
}

// synthesizeAccountID derives a unique document key from the organization
// name and the migration instant. The key carries the legacy prefix so the
// account remains a candidate for the legacy-ID engine.
func synthesizeAccountID(orgName string, at time.Time) string {
	slug := text.Fold(orgName)
	var b strings.Builder
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return fmt.Sprintf("%s%s_%d", models.LegacyAccountPrefix, strings.Trim(b.String(), "_"), at.UnixMilli())
}
