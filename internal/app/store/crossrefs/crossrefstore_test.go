// internal/app/store/crossrefs/crossrefstore_test.go
package crossrefstore_test

import (
	"testing"
	"time"

	crossrefstore "github.com/eurofed/memberhub/internal/app/store/crossrefs"
	"github.com/eurofed/memberhub/internal/domain/models"
	"github.com/eurofed/memberhub/internal/testutil"
)

func TestCrossrefStore_MessagesForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := crossrefstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	older := time.Now().UTC().Add(-time.Hour)
	if _, err := store.CreateMessage(ctx, models.UserMessage{
		UserID:    "org-marine",
		Subject:   "Renewal notice",
		Body:      "Your membership renews next month.",
		CreatedAt: older,
	}); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if _, err := store.CreateMessage(ctx, models.UserMessage{
		UserID:  "org-marine",
		Subject: "Assembly agenda",
		Body:    "Agenda attached.",
	}); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if _, err := store.CreateMessage(ctx, models.UserMessage{
		UserID:  "org-other",
		Subject: "Not yours",
	}); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	msgs, err := store.MessagesForUser(ctx, "org-marine")
	if err != nil {
		t.Fatalf("MessagesForUser failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// Newest first.
	if msgs[0].Subject != "Assembly agenda" {
		t.Errorf("expected newest message first, got %q", msgs[0].Subject)
	}
	if msgs[1].Subject != "Renewal notice" {
		t.Errorf("expected older message second, got %q", msgs[1].Subject)
	}

	none, err := store.MessagesForUser(ctx, "org-unknown")
	if err != nil {
		t.Fatalf("MessagesForUser for unknown user failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no messages for unknown user, got %d", len(none))
	}
}

func TestCrossrefStore_AlertsForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := crossrefstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.CreateAlert(ctx, models.UserAlert{
		UserID: "org-marine",
		Kind:   "billing",
		Text:   "Invoice overdue",
	}); err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}
	if _, err := store.CreateAlert(ctx, models.UserAlert{
		UserID: "org-other",
		Kind:   "billing",
		Text:   "Other account",
	}); err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}

	alerts, err := store.AlertsForUser(ctx, "org-marine")
	if err != nil {
		t.Fatalf("AlertsForUser failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Text != "Invoice overdue" {
		t.Errorf("unexpected alert text %q", alerts[0].Text)
	}
	if alerts[0].CreatedAt.IsZero() {
		t.Error("expected CreateAlert to stamp CreatedAt")
	}
}

func TestCrossrefStore_RewriteUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := crossrefstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		if _, err := store.CreateMessage(ctx, models.UserMessage{
			UserID:  "legacy-4711",
			Subject: "Old key message",
		}); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}
	if _, err := store.CreateAlert(ctx, models.UserAlert{
		UserID: "legacy-4711",
		Kind:   "status",
		Text:   "Old key alert",
	}); err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}
	if _, err := store.CreateMessage(ctx, models.UserMessage{
		UserID:  "org-untouched",
		Subject: "Different account",
	}); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	res, err := store.RewriteUserID(ctx, "legacy-4711", "org-marine")
	if err != nil {
		t.Fatalf("RewriteUserID failed: %v", err)
	}
	if res.Messages != 3 {
		t.Errorf("expected 3 messages rewritten, got %d", res.Messages)
	}
	if res.Alerts != 1 {
		t.Errorf("expected 1 alert rewritten, got %d", res.Alerts)
	}

	// The old key must be fully drained.
	left, err := store.CountForUser(ctx, "legacy-4711")
	if err != nil {
		t.Fatalf("CountForUser failed: %v", err)
	}
	if left.Messages != 0 || left.Alerts != 0 {
		t.Errorf("expected no references on old key, got %+v", left)
	}

	moved, err := store.CountForUser(ctx, "org-marine")
	if err != nil {
		t.Fatalf("CountForUser failed: %v", err)
	}
	if moved.Messages != 3 || moved.Alerts != 1 {
		t.Errorf("expected 3 messages and 1 alert on new key, got %+v", moved)
	}

	other, err := store.CountForUser(ctx, "org-untouched")
	if err != nil {
		t.Fatalf("CountForUser failed: %v", err)
	}
	if other.Messages != 1 {
		t.Errorf("expected unrelated account untouched, got %+v", other)
	}
}

func TestCrossrefStore_RewriteUserID_NoMatches(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := crossrefstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := store.RewriteUserID(ctx, "never-seen", "org-marine")
	if err != nil {
		t.Fatalf("RewriteUserID failed: %v", err)
	}
	if res.Messages != 0 || res.Alerts != 0 {
		t.Errorf("expected zero counts, got %+v", res)
	}
}
