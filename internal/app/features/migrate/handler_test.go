package migrate_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eurofed/memberhub/internal/app/features/migrate"
	"github.com/eurofed/memberhub/internal/app/migration"
	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	crossrefstore "github.com/eurofed/memberhub/internal/app/store/crossrefs"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*migrate.Handler, *testutil.Fixtures, *accountstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	accounts := accountstore.New(db)
	engine := migration.NewEngine(db.Client(), accounts,
		memberstore.New(db), crossrefstore.New(db), zap.NewNop())
	h := migrate.NewHandler(engine, nil, zap.NewNop())
	return h, testutil.NewFixtures(t, db), accounts
}

func seedLegacy(t *testing.T, fx *testutil.Fixtures) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateLegacyAccount(ctx, "company_alpha", "uid-alpha", "Alpha Logistics")
	fx.CreateMember(ctx, "company_alpha", "uid-alpha", "a@alpha.example", true)
}

func TestServe_DryRunDefault(t *testing.T) {
	h, fx, accounts := newHandler(t)
	seedLegacy(t, fx)

	// No body at all defaults to a dry run.
	req := testutil.NewAuthenticatedRequest("POST", "/", strings.NewReader(""), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Action                 string              `json:"action"`
		TotalCorporateAccounts int                 `json:"totalCorporateAccounts"`
		MigrationPlan          []migration.PlanRow `json:"migrationPlan"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp.Action != "dry-run" || resp.TotalCorporateAccounts != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.MigrationPlan) != 1 || !resp.MigrationPlan[0].IsValid {
		t.Errorf("unexpected plan: %+v", resp.MigrationPlan)
	}

	// Nothing migrated.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := accounts.GetByID(ctx, "company_alpha"); err != nil {
		t.Errorf("dry run must not write: %v", err)
	}
}

func TestServe_MigrateWithoutConfirmation(t *testing.T) {
	h, fx, accounts := newHandler(t)
	seedLegacy(t, fx)

	body := `{"action":"migrate","confirm":"yes do it"}`
	req := testutil.NewAuthenticatedRequest("POST", "/", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := accounts.GetByID(ctx, "company_alpha"); err != nil {
		t.Errorf("rejected request must not write: %v", err)
	}
}

func TestServe_Migrate(t *testing.T) {
	h, fx, accounts := newHandler(t)
	seedLegacy(t, fx)

	body, _ := json.Marshal(map[string]string{
		"action":  "migrate",
		"confirm": migration.ConfirmPhrase,
	})
	req := testutil.NewAuthenticatedRequest("POST", "/", strings.NewReader(string(body)), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Action               string `json:"action"`
		RunID                string `json:"runId"`
		TotalAccounts        int    `json:"totalAccounts"`
		SuccessfulMigrations int    `json:"successfulMigrations"`
		FailedMigrations     int    `json:"failedMigrations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp.Action != "migrate" || resp.SuccessfulMigrations != 1 || resp.FailedMigrations != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.RunID == "" {
		t.Error("expected a run id")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := accounts.GetByID(ctx, "uid-alpha"); err != nil {
		t.Errorf("migrated account missing: %v", err)
	}
}

func TestServe_UnknownAction(t *testing.T) {
	h, _, _ := newHandler(t)

	body := `{"action":"destroy-everything"}`
	req := testutil.NewAuthenticatedRequest("POST", "/", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServe_RequiresAdmin(t *testing.T) {
	h, _, _ := newHandler(t)

	req := testutil.NewAuthenticatedRequest("POST", "/", strings.NewReader("{}"), testutil.MemberUser("uid-m"))
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
