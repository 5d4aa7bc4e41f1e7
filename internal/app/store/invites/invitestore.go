// internal/app/store/invites/invitestore.go
package invitestore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the length of the invite confirmation code.
	CodeLength = 6
	// DefaultExpiry is how long an invite stays claimable.
	DefaultExpiry = 7 * 24 * time.Hour
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxClaimAttempts is the maximum number of failed code entries.
	MaxClaimAttempts = 5
)

var (
	ErrNotFound        = errors.New("invite not found or expired")
	ErrInvalidCode     = errors.New("invalid invite code")
	ErrTooManyAttempts = errors.New("too many invite claim attempts")
)

// Invite is a pending teammate invitation to join an account.
type Invite struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	AccountID    string             `bson:"account_id"`
	Email        string             `bson:"email"`
	PersonalName string             `bson:"personal_name"`
	JobTitle     string             `bson:"job_title,omitempty"`
	CodeHash     string             `bson:"code_hash"`
	Attempts     int                `bson:"attempts"`
	ExpiresAt    time.Time          `bson:"expires_at"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// Store manages pending invites.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store. A non-positive expiry falls back to DefaultExpiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("member_invites"), expiry: expiry}
}

// EnsureIndexes creates lookup and TTL indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_invites_account_email"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_invites_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create stores a new invite and returns the plain-text code to deliver to
// the invitee. Any previous invite for the same account/email is replaced.
func (s *Store) Create(ctx context.Context, accountID, email, personalName, jobTitle string) (Invite, string, error) {
	code, err := generateCode()
	if err != nil {
		return Invite{}, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return Invite{}, "", err
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"account_id": accountID, "email": email}); err != nil {
		return Invite{}, "", err
	}

	now := time.Now().UTC()
	inv := Invite{
		ID:           primitive.NewObjectID(),
		AccountID:    accountID,
		Email:        email,
		PersonalName: personalName,
		JobTitle:     jobTitle,
		CodeHash:     string(hash),
		ExpiresAt:    now.Add(s.expiry),
		CreatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		return Invite{}, "", err
	}
	return inv, code, nil
}

// Claim checks the code for a pending invite. On success the invite is
// consumed (deleted) and returned so the caller can create the member.
func (s *Store) Claim(ctx context.Context, accountID, email, code string) (Invite, error) {
	var inv Invite
	err := s.c.FindOne(ctx, bson.M{
		"account_id": accountID,
		"email":      email,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		return Invite{}, ErrNotFound
	}
	if err != nil {
		return Invite{}, err
	}

	if inv.Attempts >= MaxClaimAttempts {
		return Invite{}, ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(inv.CodeHash), []byte(code)) != nil {
		_, _ = s.c.UpdateByID(ctx, inv.ID, bson.M{"$inc": bson.M{"attempts": 1}})
		return Invite{}, ErrInvalidCode
	}

	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": inv.ID}); err != nil {
		return Invite{}, err
	}
	return inv, nil
}

// PendingForAccount lists an account's open invites.
func (s *Store) PendingForAccount(ctx context.Context, accountID string) ([]Invite, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"account_id": accountID,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invs []Invite
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

func generateCode() (string, error) {
	max := big.NewInt(10)
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
