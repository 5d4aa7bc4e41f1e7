// internal/app/access/errors.go
package access

import (
	"errors"
	"fmt"

	"github.com/eurofed/memberhub/internal/domain/models"
)

// Soft failures: the caller's session stays valid, only member-scoped
// capabilities are withheld.
var (
	ErrAccountNotFound       = errors.New("no account found for this identity")
	ErrAccountPending        = errors.New("account application is under review")
	ErrAccountInvoicePending = errors.New("account is awaiting invoice payment")

	// ErrTryAgainLater is the normalized form of every unexpected failure
	// (store outage, malformed document, claims provider error). Callers
	// never see the underlying error.
	ErrTryAgainLater = errors.New("something went wrong, please try again later")
)

// NotApprovedError reports an account whose status grants no member access.
// It carries the offending status for diagnostics: Status is the parsed
// classification, RawStatus the string as stored, so an unrecognized value
// survives the parse instead of collapsing to "unknown".
type NotApprovedError struct {
	Status    models.Status
	RawStatus string
}

func (e *NotApprovedError) Error() string {
	if e.RawStatus != "" && e.RawStatus != string(e.Status) {
		return fmt.Sprintf("account is not approved (status %q, stored as %q)", e.Status, e.RawStatus)
	}
	return fmt.Sprintf("account is not approved (status %q)", e.Status)
}

// Code returns a stable machine-readable code for a gate error, suitable for
// JSON responses. Unknown errors map to "try_again_later".
func Code(err error) string {
	var notApproved *NotApprovedError
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrAccountPending):
		return "account_pending"
	case errors.Is(err, ErrAccountInvoicePending):
		return "invoice_pending"
	case errors.As(err, &notApproved):
		return "not_approved"
	default:
		return "try_again_later"
	}
}

// Message returns the human-readable status banner text for a gate error.
func Message(err error) string {
	var notApproved *NotApprovedError
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return "We could not find a membership account for your sign-in. Contact the secretariat if you believe this is an error."
	case errors.Is(err, ErrAccountPending):
		return "Your membership application is under review. You will be notified once it has been processed."
	case errors.Is(err, ErrAccountInvoicePending):
		return "Your membership invoice has been sent. Member access opens once payment is received."
	case errors.As(err, &notApproved):
		return "Your account does not currently have member access. Contact the secretariat for details."
	default:
		return "Something went wrong. Please try again later."
	}
}
