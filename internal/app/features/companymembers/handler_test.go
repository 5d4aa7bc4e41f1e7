package companymembers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eurofed/memberhub/internal/app/features/companymembers"
	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	invitestore "github.com/eurofed/memberhub/internal/app/store/invites"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*companymembers.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := companymembers.NewHandler(
		accountstore.New(db),
		memberstore.New(db),
		invitestore.New(db, 0),
		nil, // no mail delivery in tests
		nil, // nil audit logger is a no-op
		"MemberHub",
		zap.NewNop(),
	)
	return h, testutil.NewFixtures(t, db)
}

func TestServeList(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-acme", "approved", "Acme Grain")
	fx.CreateMember(ctx, "uid-acme", "uid-acme", "boss@acme.example", true)
	fx.CreateMember(ctx, "uid-acme", "uid-emp", "emp@acme.example", false)

	req := testutil.NewAuthenticatedRequest("GET", "/?companyId=uid-acme", nil, testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success          bool   `json:"success"`
		OrganizationName string `json:"organizationName"`
		Members          []struct {
			ID                     string `json:"id"`
			Email                  string `json:"email"`
			IsPrimaryContact       bool   `json:"isPrimaryContact"`
			IsAccountAdministrator bool   `json:"isAccountAdministrator"`
		} `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if !resp.Success || resp.OrganizationName != "Acme Grain" {
		t.Errorf("unexpected response header fields: %+v", resp)
	}
	if len(resp.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(resp.Members))
	}
	for _, m := range resp.Members {
		if m.ID == "uid-acme" && (!m.IsAccountAdministrator || !m.IsPrimaryContact) {
			t.Errorf("administrator flags must agree on both field names: %+v", m)
		}
	}
}

func TestServeList_IncludesPendingInvites(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-acme", "approved", "Acme Grain")

	body := `{"companyId":"uid-acme","email":"invited@acme.example","personalName":"Invited Person"}`
	req := testutil.NewAuthenticatedRequest("POST", "/invite", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeInvite(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("invite status = %d, body %s", rec.Code, rec.Body.String())
	}

	req = testutil.NewAuthenticatedRequest("GET", "/?companyId=uid-acme", nil, testutil.AdminUser())
	rec = httptest.NewRecorder()
	h.ServeList(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		PendingInvites []struct {
			Email        string `json:"email"`
			PersonalName string `json:"personalName"`
		} `json:"pendingInvites"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if len(resp.PendingInvites) != 1 {
		t.Fatalf("expected 1 pending invite, got %d", len(resp.PendingInvites))
	}
	if resp.PendingInvites[0].Email != "invited@acme.example" {
		t.Errorf("invite email wrong: %+v", resp.PendingInvites[0])
	}
	if strings.Contains(rec.Body.String(), `"code"`) {
		t.Error("the invite code must not appear in the roster listing")
	}
}

func TestServeList_MissingCompanyID(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServeList_UnknownAccount(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/?companyId=nope", nil, testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeList_RequiresAdmin(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/?companyId=uid-acme", nil, testutil.MemberUser("uid-x"))
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeList(rec, testutil.NewRequest("GET", "/?companyId=uid-acme", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}
}

func TestServeInvite(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-acme", "approved", "Acme Grain")

	body := `{"companyId":"uid-acme","email":"New.Person@Example.COM","personalName":"<b>New Person</b>","jobTitle":"Analyst"}`
	req := testutil.NewAuthenticatedRequest("POST", "/invite", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeInvite(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Invite  struct {
			Email string `json:"email"`
		} `json:"invite"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if !resp.Success || resp.Code == "" {
		t.Errorf("expected a code in the response: %+v", resp)
	}
	if resp.Invite.Email != "new.person@example.com" {
		t.Errorf("email not normalized: %q", resp.Invite.Email)
	}

	pending, err := h.Invites.PendingForAccount(ctx, "uid-acme")
	if err != nil {
		t.Fatalf("PendingForAccount failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending invite, got %d", len(pending))
	}
	if strings.Contains(pending[0].PersonalName, "<b>") {
		t.Errorf("name not sanitized: %q", pending[0].PersonalName)
	}
}

func TestServeInvite_MissingFields(t *testing.T) {
	h, _ := newHandler(t)

	body := `{"companyId":"uid-acme"}`
	req := testutil.NewAuthenticatedRequest("POST", "/invite", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeInvite(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServeInviteCSV(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-acme", "approved", "Acme Grain")

	csv := "Full Name,Email,Job Title\nJohan Berg,johan@example.com,Policy Officer\n,broken-row@example.com,\n"
	req := testutil.NewAuthenticatedRequest("POST", "/invite-csv?companyId=uid-acme", strings.NewReader(csv), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeInviteCSV(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success   bool `json:"success"`
		Invited   int  `json:"invited"`
		RowErrors []struct {
			Line int `json:"line"`
		} `json:"rowErrors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp.Invited != 1 {
		t.Errorf("invited = %d, want 1", resp.Invited)
	}
	if len(resp.RowErrors) != 1 {
		t.Errorf("expected 1 row error, got %d", len(resp.RowErrors))
	}
}

func TestServeRemove(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-acme", "approved", "Acme Grain")
	fx.CreateMember(ctx, "uid-acme", "uid-acme", "boss@acme.example", true)
	fx.CreateMember(ctx, "uid-acme", "uid-emp", "emp@acme.example", false)

	body := `{"companyId":"uid-acme","memberId":"uid-emp"}`
	req := testutil.NewAuthenticatedRequest("POST", "/remove", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeRemove(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	left, err := h.Members.ListByAccount(ctx, "uid-acme")
	if err != nil {
		t.Fatalf("ListByAccount failed: %v", err)
	}
	if len(left) != 1 || left[0].UID != "uid-acme" {
		t.Errorf("expected only the administrator to remain, got %+v", left)
	}
}

func TestServeSetStatus(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-acme", "invoice_sent", "Acme Grain")

	body := `{"companyId":"uid-acme","status":"approved"}`
	req := testutil.NewAuthenticatedRequest("POST", "/status", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeSetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	acct, err := h.Accounts.GetByID(ctx, "uid-acme")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if acct.Status != "approved" {
		t.Errorf("stored status = %q, want approved", acct.Status)
	}
}

func TestServeSetStatus_RejectsUnrecognized(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-acme", "approved", "Acme Grain")

	body := `{"companyId":"uid-acme","status":"archived_v2"}`
	req := testutil.NewAuthenticatedRequest("POST", "/status", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeSetStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	acct, err := h.Accounts.GetByID(ctx, "uid-acme")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if acct.Status != "approved" {
		t.Errorf("stored status must be unchanged, got %q", acct.Status)
	}
}

func TestServeSetStatus_UnknownAccount(t *testing.T) {
	h, _ := newHandler(t)

	body := `{"companyId":"nope","status":"approved"}`
	req := testutil.NewAuthenticatedRequest("POST", "/status", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeSetStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeRemove_AdministratorProtected(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(ctx, "uid-acme", "approved", "Acme Grain")
	fx.CreateMember(ctx, "uid-acme", "uid-acme", "boss@acme.example", true)

	body := `{"companyId":"uid-acme","memberId":"uid-acme"}`
	req := testutil.NewAuthenticatedRequest("POST", "/remove", strings.NewReader(body), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeRemove(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
