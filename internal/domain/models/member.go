// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is a person belonging to exactly one account. The UID is the
// member's auth-provider identity; a canonical account has exactly one member
// whose UID equals the account's own document key (the primary contact).
type Member struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	AccountID      string             `bson:"account_id" json:"accountId"`
	UID            string             `bson:"uid" json:"id"`
	Email          string             `bson:"email" json:"email"`
	PersonalName   string             `bson:"personal_name" json:"personalName"`
	PersonalNameCI string             `bson:"personal_name_ci" json:"-"`
	JobTitle       string             `bson:"job_title,omitempty" json:"jobTitle,omitempty"`

	// IsAccountAdministrator is the canonical flag. IsPrimaryContact is the
	// legacy alias: honoured when reading old documents, never written.
	IsAccountAdministrator bool `bson:"is_account_administrator" json:"isAccountAdministrator"`
	IsPrimaryContact       bool `bson:"is_primary_contact,omitempty" json:"isPrimaryContact"`

	// AccountConfirmed becomes true once the invited person completes signup.
	AccountConfirmed bool `bson:"account_confirmed" json:"accountConfirmed"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsAdministrator merges the canonical flag with the legacy alias.
func (m Member) IsAdministrator() bool {
	return m.IsAccountAdministrator || m.IsPrimaryContact
}
