// internal/app/store/legacy/legacystore.go
package legacystore

import (
	"context"
	"time"

	"github.com/eurofed/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads the flat pre-unification collections. Only the unified
// migration writes here, and only to delete or backfill.
type Store struct {
	users        *mongo.Collection
	applications *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		users:        db.Collection("legacy_users"),
		applications: db.Collection("member_applications"),
	}
}

// Users returns every flat legacy user, sorted by _id so migration runs
// process them in a stable order.
func (s *Store) Users(ctx context.Context) ([]models.LegacyUser, error) {
	cursor, err := s.users.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.LegacyUser
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Applications returns every member application keyed by user id. A user
// with multiple applications keeps the earliest submitted one.
func (s *Store) Applications(ctx context.Context) (map[string]models.MemberApplication, error) {
	cursor, err := s.applications.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	byUser := make(map[string]models.MemberApplication)
	for cursor.Next(ctx) {
		var app models.MemberApplication
		if err := cursor.Decode(&app); err != nil {
			return nil, err
		}
		if _, seen := byUser[app.UserID]; !seen {
			byUser[app.UserID] = app
		}
	}
	return byUser, cursor.Err()
}

// DeleteUser removes one flat user document after its data has been moved.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	_, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// MarkMigrated backfills an individual user in place: the document keeps its
// key and shape, only organization_name and the migration stamp change.
func (s *Store) MarkMigrated(ctx context.Context, id, orgName string, at time.Time) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"organization_name": orgName,
			"migrated_at":       at,
		}})
	return err
}
