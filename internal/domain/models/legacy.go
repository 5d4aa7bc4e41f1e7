// internal/domain/models/legacy.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LegacyUser is a flat pre-unification user record. The unified migration
// reshapes corporate legacy users into account + member documents and
// backfills individual ones in place.
type LegacyUser struct {
	ID               string    `bson:"_id" json:"id"`
	Email            string    `bson:"email" json:"email"`
	PersonalName     string    `bson:"personal_name" json:"personalName"`
	JobTitle         string    `bson:"job_title,omitempty" json:"jobTitle,omitempty"`
	MembershipType   string    `bson:"membership_type" json:"membershipType"`
	OrganizationName string    `bson:"organization_name,omitempty" json:"organizationName,omitempty"`
	Status           string    `bson:"status" json:"status"`
	MigratedAt       *time.Time `bson:"migrated_at,omitempty" json:"migratedAt,omitempty"`
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
}

// MemberApplication is a legacy membership application. It supplies the
// organization-level fields the unified migration copies onto the synthesized
// account (the first applicant per organization acts as the template).
type MemberApplication struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           string             `bson:"user_id" json:"userId"`
	OrganizationName string             `bson:"organization_name" json:"organizationName"`
	OrganizationType string             `bson:"organization_type,omitempty" json:"organizationType,omitempty"`
	Address          map[string]any     `bson:"address,omitempty" json:"address,omitempty"`
	Portfolio        map[string]any     `bson:"portfolio,omitempty" json:"portfolio,omitempty"`
	Regulatory       map[string]any     `bson:"regulatory,omitempty" json:"regulatory,omitempty"`
	SubmittedAt      time.Time          `bson:"submitted_at" json:"submittedAt"`
}
