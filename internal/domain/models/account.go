// internal/domain/models/account.go
package models

import "time"

// Terminology: Account Identifiers
//   - Legacy account: _id is a generated string with the "company_" prefix.
//   - Canonical account: _id equals the auth UID of the primary contact.
//
// During the identity migration both forms coexist; the embedded UID field
// mirrors the document key once an account reaches canonical form.

// Status is the lifecycle status of an account. It is stored as a plain
// string; use ParseStatus when reading values of unknown provenance so that
// unrecognized strings map to StatusUnknown instead of leaking through
// comparisons.
type Status string

const (
	StatusGuest       Status = "guest"
	StatusPending     Status = "pending"
	StatusInvoiceSent Status = "invoice_sent"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusAdmin       Status = "admin"

	// StatusUnknown is never persisted; it is the parse result for any
	// status string outside the defined set.
	StatusUnknown Status = "unknown"
)

// ParseStatus maps a raw status string onto the defined set. Anything else,
// including the empty string, becomes StatusUnknown.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusGuest, StatusPending, StatusInvoiceSent, StatusApproved, StatusRejected, StatusAdmin:
		return Status(raw)
	default:
		return StatusUnknown
	}
}

// Membership types.
const (
	MembershipCorporate  = "corporate"
	MembershipIndividual = "individual"
)

// LegacyAccountPrefix marks account IDs generated before the auth-UID keying
// scheme. The migration engine selects its candidates by this prefix.
const LegacyAccountPrefix = "company_"

// Account is the root entity for an organization or individual member.
type Account struct {
	ID                 string `bson:"_id" json:"id"`
	UID                string `bson:"uid,omitempty" json:"uid,omitempty"`
	Status             string `bson:"status" json:"status"`
	MembershipType     string `bson:"membership_type" json:"membershipType"`
	OrganizationName   string `bson:"organization_name" json:"organizationName"`
	OrganizationNameCI string `bson:"organization_name_ci" json:"-"`
	OrganizationType   string `bson:"organization_type,omitempty" json:"organizationType,omitempty"`

	// Opaque organization metadata; the core never inspects these.
	Address    map[string]any `bson:"address,omitempty" json:"address,omitempty"`
	Portfolio  map[string]any `bson:"portfolio,omitempty" json:"portfolio,omitempty"`
	Regulatory map[string]any `bson:"regulatory,omitempty" json:"regulatory,omitempty"`

	// PrimaryContactMemberID is the member UID that becomes the document key
	// after migration. Only meaningful on legacy accounts.
	PrimaryContactMemberID string `bson:"primary_contact_member_id,omitempty" json:"primaryContactMemberId,omitempty"`

	// Provenance stamps written by the migration engine.
	MigratedFrom string     `bson:"migrated_from,omitempty" json:"migratedFrom,omitempty"`
	MigratedAt   *time.Time `bson:"migrated_at,omitempty" json:"migratedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsLegacy reports whether the account still carries a generated document key.
func (a Account) IsLegacy() bool {
	return len(a.ID) > len(LegacyAccountPrefix) && a.ID[:len(LegacyAccountPrefix)] == LegacyAccountPrefix
}

// IsCanonical reports whether the document key matches the embedded UID.
func (a Account) IsCanonical() bool {
	return a.UID != "" && a.ID == a.UID
}
