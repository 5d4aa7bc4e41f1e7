// internal/app/store/audit/store_test.go
package audit_test

import (
	"testing"
	"time"

	"github.com/eurofed/memberhub/internal/app/store/audit"
	"github.com/eurofed/memberhub/internal/testutil"
)

func TestAuditStore_LogAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignInSuccess,
		AccountID: "org-marine",
		ActorUID:  "uid-nils",
		IP:        "192.0.2.10",
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{AccountID: "org-marine"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventType != audit.EventSignInSuccess {
		t.Errorf("expected event type %q, got %q", audit.EventSignInSuccess, ev.EventType)
	}
	if ev.ActorUID != "uid-nils" {
		t.Errorf("expected actor uid-nils, got %q", ev.ActorUID)
	}
	if ev.ID.IsZero() {
		t.Error("expected Log to assign an ID")
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected Log to stamp a timestamp")
	}
}

func TestAuditStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seed := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventSignInSuccess, AccountID: "org-a", ActorUID: "uid-1", Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventSignOut, AccountID: "org-a", ActorUID: "uid-1", Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventMemberInvited, AccountID: "org-a", ActorUID: "uid-2", Success: true},
		{Category: audit.CategoryMigration, EventType: audit.EventMigrationExecuted, RunID: "run-77", Success: true},
	}
	for _, ev := range seed {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	auth, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Query by category failed: %v", err)
	}
	if len(auth) != 2 {
		t.Errorf("expected 2 auth events, got %d", len(auth))
	}

	byRun, err := store.Query(ctx, audit.QueryFilter{RunID: "run-77"})
	if err != nil {
		t.Fatalf("Query by run failed: %v", err)
	}
	if len(byRun) != 1 || byRun[0].EventType != audit.EventMigrationExecuted {
		t.Errorf("unexpected run query result: %+v", byRun)
	}

	byActor, err := store.Query(ctx, audit.QueryFilter{ActorUID: "uid-2"})
	if err != nil {
		t.Fatalf("Query by actor failed: %v", err)
	}
	if len(byActor) != 1 || byActor[0].EventType != audit.EventMemberInvited {
		t.Errorf("unexpected actor query result: %+v", byActor)
	}
}

func TestAuditStore_Query_NewestFirstWithLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: audit.EventSignInSuccess,
			ActorUID:  "uid-seq",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Success:   true,
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.Query(ctx, audit.QueryFilter{ActorUID: "uid-seq", Limit: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected limit of 2 events, got %d", len(events))
	}
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Errorf("expected newest first, got %v then %v", events[0].Timestamp, events[1].Timestamp)
	}
	if !events[0].Timestamp.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("expected the latest event first, got %v", events[0].Timestamp)
	}
}

func TestAuditStore_CountByFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, audit.Event{Category: audit.CategoryMigration, EventType: audit.EventVerificationRun, RunID: "run-9"}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventSignOut}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{RunID: "run-9"})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 events, got %d", n)
	}
}
