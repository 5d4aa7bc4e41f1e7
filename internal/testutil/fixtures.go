package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/eurofed/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateAccount inserts an account with the given document key and status.
// The embedded UID mirrors the key unless the key carries the legacy prefix.
func (f *Fixtures) CreateAccount(ctx context.Context, id string, status models.Status, orgName string) models.Account {
	f.t.Helper()

	now := time.Now().UTC()
	acct := models.Account{
		ID:                 id,
		Status:             string(status),
		MembershipType:     models.MembershipCorporate,
		OrganizationName:   orgName,
		OrganizationNameCI: text.Fold(orgName),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if !acct.IsLegacy() {
		acct.UID = id
	}

	if _, err := f.db.Collection("accounts").InsertOne(ctx, acct); err != nil {
		f.t.Fatalf("failed to create test account: %v", err)
	}
	return acct
}

// CreateLegacyAccount inserts a legacy corporate account with the given
// primary contact member id.
func (f *Fixtures) CreateLegacyAccount(ctx context.Context, id, primaryContactID, orgName string) models.Account {
	f.t.Helper()

	now := time.Now().UTC()
	acct := models.Account{
		ID:                     id,
		Status:                 string(models.StatusApproved),
		MembershipType:         models.MembershipCorporate,
		OrganizationName:       orgName,
		OrganizationNameCI:     text.Fold(orgName),
		PrimaryContactMemberID: primaryContactID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if _, err := f.db.Collection("accounts").InsertOne(ctx, acct); err != nil {
		f.t.Fatalf("failed to create legacy test account: %v", err)
	}
	return acct
}

// CreateMember inserts a member under the given account.
func (f *Fixtures) CreateMember(ctx context.Context, accountID, uid, email string, admin bool) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	name := fmt.Sprintf("Member %s", uid)
	m := models.Member{
		ID:                     primitive.NewObjectID(),
		AccountID:              accountID,
		UID:                    uid,
		Email:                  email,
		PersonalName:           name,
		PersonalNameCI:         text.Fold(name),
		IsAccountAdministrator: admin,
		AccountConfirmed:       true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateMessage inserts a user message cross-reference for an account.
func (f *Fixtures) CreateMessage(ctx context.Context, accountID, subject string) models.UserMessage {
	f.t.Helper()

	msg := models.UserMessage{
		ID:        primitive.NewObjectID(),
		UserID:    accountID,
		Subject:   subject,
		Body:      "<p>" + subject + "</p>",
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("user_messages").InsertOne(ctx, msg); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return msg
}

// CreateAlert inserts a user alert cross-reference for an account.
func (f *Fixtures) CreateAlert(ctx context.Context, accountID, text string) models.UserAlert {
	f.t.Helper()

	alert := models.UserAlert{
		ID:        primitive.NewObjectID(),
		UserID:    accountID,
		Kind:      "info",
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("user_alerts").InsertOne(ctx, alert); err != nil {
		f.t.Fatalf("failed to create test alert: %v", err)
	}
	return alert
}

// CreateLegacyUser inserts a flat pre-unification user record.
func (f *Fixtures) CreateLegacyUser(ctx context.Context, id, email, membershipType, orgName string) models.LegacyUser {
	f.t.Helper()

	u := models.LegacyUser{
		ID:               id,
		Email:            email,
		PersonalName:     "Legacy " + id,
		MembershipType:   membershipType,
		OrganizationName: orgName,
		Status:           string(models.StatusApproved),
		CreatedAt:        time.Now().UTC(),
	}
	if _, err := f.db.Collection("legacy_users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create legacy test user: %v", err)
	}
	return u
}

// CreateApplication inserts a legacy member application.
func (f *Fixtures) CreateApplication(ctx context.Context, userID, orgName string) models.MemberApplication {
	f.t.Helper()

	app := models.MemberApplication{
		ID:               primitive.NewObjectID(),
		UserID:           userID,
		OrganizationName: orgName,
		OrganizationType: "association",
		SubmittedAt:      time.Now().UTC(),
	}
	if _, err := f.db.Collection("member_applications").InsertOne(ctx, app); err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}
	return app
}
