// internal/app/store/members/memberstore.go
package memberstore

// A member document belongs to exactly one account (account_id). The UID is
// the person's auth-provider identity; (account_id, uid) is unique. Reads
// honour the legacy is_primary_contact alias via Member.IsAdministrator;
// writes only ever set is_account_administrator.

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/eurofed/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound        = errors.New("member not found")
	ErrDuplicateMember = errors.New("this person is already a member of the account")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// EnsureIndexes creates the uniqueness and lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "uid", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_members_account_uid"),
		},
		{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetName("idx_members_uid"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a member under an account.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.PersonalNameCI = text.Fold(m.PersonalName)
	// Never write the legacy alias on new documents.
	m.IsPrimaryContact = false
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateMember
		}
		return models.Member{}, err
	}
	return m, nil
}

// GetByAccountAndUID loads the member identified by uid within one account.
func (s *Store) GetByAccountAndUID(ctx context.Context, accountID, uid string) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"account_id": accountID, "uid": uid}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Member{}, ErrNotFound
	}
	if err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// FindByUID returns every member document carrying the given UID. During the
// migration transition a UID normally maps to one document, but the resolver
// treats the first match as authoritative rather than assuming uniqueness.
func (s *Store) FindByUID(ctx context.Context, uid string) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"uid": uid},
		options.Find().SetSort(bson.D{{Key: "account_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Member
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ListByAccount returns the members of one account ordered by name.
func (s *Store) ListByAccount(ctx context.Context, accountID string) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"account_id": accountID},
		options.Find().SetSort(bson.D{{Key: "personal_name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Member
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CountByAccount returns how many members an account has.
func (s *Store) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"account_id": accountID})
}

// DeleteByAccount removes every member document under the given account.
// Used by the migration engine after re-creating members under the new key.
func (s *Store) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"account_id": accountID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Delete removes one member from an account.
func (s *Store) Delete(ctx context.Context, accountID, uid string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"account_id": accountID, "uid": uid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAccountConfirmed marks a member's signup as completed.
func (s *Store) SetAccountConfirmed(ctx context.Context, accountID, uid string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"account_id": accountID, "uid": uid},
		bson.M{"$set": bson.M{"account_confirmed": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
