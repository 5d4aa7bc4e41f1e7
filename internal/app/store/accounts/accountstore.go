// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/eurofed/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the accounts collection. Account document keys are strings:
// either a legacy generated "company_..." ID or the primary contact's auth
// UID (canonical).
type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound         = errors.New("account not found")
	ErrDuplicateAccount = errors.New("an account with this ID already exists")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("accounts")}
}

// EnsureIndexes creates the indexes the resolver and migration queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_accounts_orgname_ci"),
		},
		{
			Keys:    bson.D{{Key: "membership_type", Value: 1}},
			Options: options.Index().SetName("idx_accounts_membership_type"),
		},
		{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetName("idx_accounts_uid").SetSparse(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new account document. The caller supplies the document
// key; canonical accounts mirror it into the embedded UID.
func (s *Store) Create(ctx context.Context, acct models.Account) (models.Account, error) {
	now := time.Now().UTC()
	acct.OrganizationNameCI = text.Fold(acct.OrganizationName)
	if acct.UID == "" && !acct.IsLegacy() {
		acct.UID = acct.ID
	}
	if acct.Status == "" {
		acct.Status = string(models.StatusPending)
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	acct.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, acct); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, ErrDuplicateAccount
		}
		return models.Account{}, err
	}
	return acct, nil
}

// GetByID loads one account by its document key.
func (s *Store) GetByID(ctx context.Context, id string) (models.Account, error) {
	var acct models.Account
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&acct)
	if err == mongo.ErrNoDocuments {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

// Exists reports whether an account document with the given key exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateStatus sets an account's status and refreshes UpdatedAt.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account document by key. Returns the number deleted
// (0 or 1). Only the migration engine deletes accounts, as the final step of
// moving a legacy account to its canonical key.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// FindLegacyCorporate returns all corporate accounts still keyed by a
// generated legacy ID. These are the migration engine's candidates.
func (s *Store) FindLegacyCorporate(ctx context.Context) ([]models.Account, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"membership_type": models.MembershipCorporate,
		"_id":             bson.M{"$regex": "^" + models.LegacyAccountPrefix},
	}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var accts []models.Account
	if err := cur.All(ctx, &accts); err != nil {
		return nil, err
	}
	return accts, nil
}

// All returns every account, ordered by document key. The verification
// utility and the resolver's transitional fallback scan both depend on the
// deterministic ordering.
func (s *Store) All(ctx context.Context) ([]models.Account, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var accts []models.Account
	if err := cur.All(ctx, &accts); err != nil {
		return nil, err
	}
	return accts, nil
}

// Count returns the number of accounts matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
