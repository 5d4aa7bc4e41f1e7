// internal/app/access/resolver.go
package access

import (
	"context"
	"errors"

	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Resolver locates the account and member record for an authenticated
// caller's UID. It is read-only.
type Resolver struct {
	accounts *accountstore.Store
	members  *memberstore.Store
	log      *zap.Logger
}

func NewResolver(accounts *accountstore.Store, members *memberstore.Store, log *zap.Logger) *Resolver {
	return &Resolver{accounts: accounts, members: members, log: log}
}

// Resolve finds the account/member pair for uid.
//
// Fast path: member records are indexed by uid and carry the account key, so
// one indexed lookup plus one get by id suffices for canonical accounts.
// Fallback: enumerate every account and compare its members' uid fields. The
// scan exists only for documents left inconsistent mid-migration (a member
// whose account_id no longer resolves); once migration completes the fast
// path always wins.
//
// Returns ErrAccountNotFound when no account contains the caller.
func (r *Resolver) Resolve(ctx context.Context, uid string) (models.Account, models.Member, error) {
	mems, err := r.members.FindByUID(ctx, uid)
	if err != nil {
		return models.Account{}, models.Member{}, err
	}
	for _, m := range mems {
		if m.AccountID == "" {
			continue
		}
		acct, err := r.accounts.GetByID(ctx, m.AccountID)
		if errors.Is(err, accountstore.ErrNotFound) {
			// Stale account reference; keep looking.
			r.log.Debug("member references missing account",
				zap.String("uid", uid),
				zap.String("account_id", m.AccountID))
			continue
		}
		if err != nil {
			return models.Account{}, models.Member{}, err
		}
		return acct, m, nil
	}

	return r.resolveByScan(ctx, uid)
}

// resolveByScan walks every account's member list looking for uid. Linear in
// the total number of members; transitional only.
func (r *Resolver) resolveByScan(ctx context.Context, uid string) (models.Account, models.Member, error) {
	accts, err := r.accounts.All(ctx)
	if err != nil {
		return models.Account{}, models.Member{}, err
	}
	for _, acct := range accts {
		mems, err := r.members.ListByAccount(ctx, acct.ID)
		if err != nil {
			return models.Account{}, models.Member{}, err
		}
		for _, m := range mems {
			if m.UID == uid {
				r.log.Info("account resolved via fallback scan",
					zap.String("uid", uid),
					zap.String("account_id", acct.ID))
				return acct, m, nil
			}
		}
	}
	return models.Account{}, models.Member{}, ErrAccountNotFound
}
