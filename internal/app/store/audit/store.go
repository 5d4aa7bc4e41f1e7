// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth      = "auth"
	CategoryAdmin     = "admin"
	CategoryMigration = "migration"
)

// Auth event types
const (
	EventSignInSuccess     = "sign_in_success"
	EventSignInNoAccount   = "sign_in_no_account"
	EventSignOut           = "sign_out"
	EventAdminClaimGranted = "admin_claim_granted"
)

// Admin event types
const (
	EventMemberInvited   = "member_invited"
	EventMemberRemoved   = "member_removed"
	EventInviteClaimed   = "invite_claimed"
	EventStatusChanged   = "status_changed"
)

// Migration event types
const (
	EventMigrationDryRun    = "migration_dry_run"
	EventMigrationExecuted  = "migration_executed"
	EventUnifiedMigration   = "unified_migration_executed"
	EventVerificationRun    = "verification_run"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who: account key and caller UID where applicable.
	AccountID string `bson:"account_id,omitempty"`
	ActorUID  string `bson:"actor_uid,omitempty"`

	// RunID groups the events of one migration or verification run.
	RunID string `bson:"run_id,omitempty"`

	IP string `bson:"ip,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	AccountID string
	ActorUID  string
	Category  string
	EventType string
	RunID     string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates indexes for the common query shapes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "account_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "run_id", Value: 1}},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := bson.M{}

	if filter.AccountID != "" {
		query["account_id"] = filter.AccountID
	}
	if filter.ActorUID != "" {
		query["actor_uid"] = filter.ActorUID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.RunID != "" {
		query["run_id"] = filter.RunID
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	query := bson.M{}
	if filter.AccountID != "" {
		query["account_id"] = filter.AccountID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.RunID != "" {
		query["run_id"] = filter.RunID
	}
	return s.c.CountDocuments(ctx, query)
}
