package verifyaccounts_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eurofed/memberhub/internal/app/features/verifyaccounts"
	"github.com/eurofed/memberhub/internal/app/migration"
	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	crossrefstore "github.com/eurofed/memberhub/internal/app/store/crossrefs"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*verifyaccounts.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	verifier := migration.NewVerifier(accountstore.New(db), memberstore.New(db), crossrefstore.New(db), zap.NewNop())
	return verifyaccounts.NewHandler(verifier, nil, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestServe_JSON(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-good", "approved", "Good Org")
	fx.CreateLegacyAccount(ctx, "company_old", "uid-old", "Old Org")
	fx.CreateMember(ctx, "company_old", "uid-old", "o@old.example", true)

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Clean   bool `json:"clean"`
		Report  struct {
			TotalAccounts int `json:"totalAccounts"`
			Mismatches    []struct {
				OldID      string `json:"oldId"`
				ExpectedID string `json:"expectedId"`
			} `json:"mismatches"`
		} `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if !resp.Success || resp.Clean {
		t.Errorf("expected success with an unclean report: %+v", resp)
	}
	if resp.Report.TotalAccounts != 2 || len(resp.Report.Mismatches) != 1 {
		t.Errorf("unexpected report: %+v", resp.Report)
	}
	if resp.Report.Mismatches[0].ExpectedID != "uid-old" {
		t.Errorf("mismatch row wrong: %+v", resp.Report.Mismatches[0])
	}
}

func TestServe_CSV(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-good", "approved", "Good Org")

	req := testutil.NewAuthenticatedRequest("GET", "/?format=csv", nil, testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "classification,") {
		t.Errorf("missing CSV header: %q", body)
	}
	if !strings.Contains(body, "verified,uid-good") {
		t.Errorf("missing verified row: %q", body)
	}
}

func TestServe_RequiresAdmin(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.MemberUser("uid-m"))
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
