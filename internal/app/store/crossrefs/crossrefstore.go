// internal/app/store/crossrefs/crossrefstore.go
package crossrefstore

// user_messages and user_alerts documents reference an account by its
// document key (user_id). When the migration engine changes an account's
// key, RewriteUserID must move every reference to the new key; a dangling
// old-key reference is a data-integrity defect.

import (
	"context"
	"time"

	"github.com/eurofed/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	messages *mongo.Collection
	alerts   *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		messages: db.Collection("user_messages"),
		alerts:   db.Collection("user_alerts"),
	}
}

// EnsureIndexes creates the user_id lookup indexes on both collections.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetName("idx_crossref_user"),
	}
	if _, err := s.messages.Indexes().CreateOne(ctx, model); err != nil {
		return err
	}
	_, err := s.alerts.Indexes().CreateOne(ctx, model)
	return err
}

// CreateMessage inserts a bulletin for an account.
func (s *Store) CreateMessage(ctx context.Context, msg models.UserMessage) (models.UserMessage, error) {
	msg.ID = primitive.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return models.UserMessage{}, err
	}
	return msg, nil
}

// CreateAlert inserts an alert for an account.
func (s *Store) CreateAlert(ctx context.Context, alert models.UserAlert) (models.UserAlert, error) {
	alert.ID = primitive.NewObjectID()
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	if _, err := s.alerts.InsertOne(ctx, alert); err != nil {
		return models.UserAlert{}, err
	}
	return alert, nil
}

// MessagesForUser returns an account's bulletins, newest first.
func (s *Store) MessagesForUser(ctx context.Context, userID string) ([]models.UserMessage, error) {
	cur, err := s.messages.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.UserMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// AlertsForUser returns an account's alerts, newest first.
func (s *Store) AlertsForUser(ctx context.Context, userID string) ([]models.UserAlert, error) {
	cur, err := s.alerts.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var alerts []models.UserAlert
	if err := cur.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// RewriteResult tallies the cross-reference rewrite after a key change.
type RewriteResult struct {
	Messages int64
	Alerts   int64
}

// RewriteUserID repoints every message and alert from oldID to newID.
// Called after the migration batch commits; the two UpdateMany calls are not
// atomic with the batch or with each other, which is the accepted
// inconsistency window of the migration design.
func (s *Store) RewriteUserID(ctx context.Context, oldID, newID string) (RewriteResult, error) {
	var res RewriteResult

	mr, err := s.messages.UpdateMany(ctx,
		bson.M{"user_id": oldID},
		bson.M{"$set": bson.M{"user_id": newID}})
	if err != nil {
		return res, err
	}
	res.Messages = mr.ModifiedCount

	ar, err := s.alerts.UpdateMany(ctx,
		bson.M{"user_id": oldID},
		bson.M{"$set": bson.M{"user_id": newID}})
	if err != nil {
		return res, err
	}
	res.Alerts = ar.ModifiedCount

	return res, nil
}

// CountForUser returns how many messages and alerts reference an account.
// The verification tooling uses it to spot dangling references.
func (s *Store) CountForUser(ctx context.Context, userID string) (RewriteResult, error) {
	m, err := s.messages.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return RewriteResult{}, err
	}
	a, err := s.alerts.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return RewriteResult{}, err
	}
	return RewriteResult{Messages: m, Alerts: a}, nil
}
