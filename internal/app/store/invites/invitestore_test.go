// internal/app/store/invites/invitestore_test.go
package invitestore_test

import (
	"errors"
	"testing"
	"time"

	invitestore "github.com/eurofed/memberhub/internal/app/store/invites"
	"github.com/eurofed/memberhub/internal/testutil"
)

func TestInviteStore_CreateAndClaim(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := invitestore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inv, code, err := store.Create(ctx, "org-marine", "nils@marine.example", "Nils Holm", "Treasurer")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(code) != invitestore.CodeLength {
		t.Errorf("expected %d-digit code, got %q", invitestore.CodeLength, code)
	}
	if inv.CodeHash == code {
		t.Error("invite must not store the plain-text code")
	}
	if inv.ExpiresAt.Before(time.Now().UTC()) {
		t.Error("expected future expiry")
	}

	claimed, err := store.Claim(ctx, "org-marine", "nils@marine.example", code)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if claimed.PersonalName != "Nils Holm" || claimed.JobTitle != "Treasurer" {
		t.Errorf("unexpected claimed invite: %+v", claimed)
	}

	// A claimed invite is consumed.
	if _, err := store.Claim(ctx, "org-marine", "nils@marine.example", code); !errors.Is(err, invitestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for consumed invite, got %v", err)
	}
}

func TestInviteStore_Claim_WrongCode(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := invitestore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, code, err := store.Create(ctx, "org-marine", "nils@marine.example", "Nils Holm", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.Claim(ctx, "org-marine", "nils@marine.example", "000000"); !errors.Is(err, invitestore.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	// The real code still works after one bad attempt.
	if _, err := store.Claim(ctx, "org-marine", "nils@marine.example", code); err != nil {
		t.Fatalf("Claim with correct code failed: %v", err)
	}
}

func TestInviteStore_Claim_TooManyAttempts(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := invitestore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, code, err := store.Create(ctx, "org-marine", "nils@marine.example", "Nils Holm", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < invitestore.MaxClaimAttempts; i++ {
		if _, err := store.Claim(ctx, "org-marine", "nils@marine.example", "999999"); !errors.Is(err, invitestore.ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i, err)
		}
	}

	// Even the correct code is locked out now.
	if _, err := store.Claim(ctx, "org-marine", "nils@marine.example", code); !errors.Is(err, invitestore.ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestInviteStore_Claim_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := invitestore.New(db, time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, code, err := store.Create(ctx, "org-marine", "nils@marine.example", "Nils Holm", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := store.Claim(ctx, "org-marine", "nils@marine.example", code); !errors.Is(err, invitestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired invite, got %v", err)
	}
}

func TestInviteStore_Create_ReplacesPrevious(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := invitestore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, oldCode, err := store.Create(ctx, "org-marine", "nils@marine.example", "Nils Holm", "")
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, newCode, err := store.Create(ctx, "org-marine", "nils@marine.example", "Nils Holm", "")
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	pending, err := store.PendingForAccount(ctx, "org-marine")
	if err != nil {
		t.Fatalf("PendingForAccount failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected replacement to leave 1 invite, got %d", len(pending))
	}

	if oldCode != newCode {
		if _, err := store.Claim(ctx, "org-marine", "nils@marine.example", oldCode); !errors.Is(err, invitestore.ErrInvalidCode) {
			t.Errorf("expected old code rejected, got %v", err)
		}
	}
	if _, err := store.Claim(ctx, "org-marine", "nils@marine.example", newCode); err != nil {
		t.Errorf("Claim with new code failed: %v", err)
	}
}

func TestInviteStore_PendingForAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := invitestore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := store.Create(ctx, "org-marine", "a@marine.example", "A", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, _, err := store.Create(ctx, "org-marine", "b@marine.example", "B", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, _, err := store.Create(ctx, "org-other", "c@other.example", "C", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pending, err := store.PendingForAccount(ctx, "org-marine")
	if err != nil {
		t.Fatalf("PendingForAccount failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending invites, got %d", len(pending))
	}
	for _, inv := range pending {
		if inv.AccountID != "org-marine" {
			t.Errorf("unexpected account in results: %q", inv.AccountID)
		}
	}
}
