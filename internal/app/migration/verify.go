// internal/app/migration/verify.go
package migration

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	crossrefstore "github.com/eurofed/memberhub/internal/app/store/crossrefs"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"go.uber.org/zap"
)

// VerifiedRow is an account whose document key matches its identity field.
type VerifiedRow struct {
	ID               string `json:"id"`
	OrganizationName string `json:"organizationName"`
	Status           string `json:"status"`
}

// MismatchRow is an account whose key and identity field disagree: the
// account was migrated partially or its uid was edited out of band.
// DanglingRefs counts the messages and alerts still filed under the old key;
// those would be orphaned by a rename that skips the cross-reference rewrite.
type MismatchRow struct {
	OldID            string `json:"oldId"`
	ExpectedID       string `json:"expectedId"`
	OrganizationName string `json:"organizationName"`
	Status           string `json:"status"`
	MemberCount      int    `json:"memberCount"`
	DanglingRefs     int    `json:"danglingRefs"`
}

// ErrorRow is an account the verifier could not classify: no identity field
// at all, or the read failed.
type ErrorRow struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Report is the full verification outcome. Rows appear in account-key order
// so repeated runs over an unchanged store produce identical reports.
type Report struct {
	TotalAccounts int           `json:"totalAccounts"`
	Verified      []VerifiedRow `json:"verified"`
	Mismatches    []MismatchRow `json:"mismatches"`
	Errors        []ErrorRow    `json:"errors"`
}

// Clean reports whether the store needs no operator attention.
func (r Report) Clean() bool {
	return len(r.Mismatches) == 0 && len(r.Errors) == 0
}

// Verifier audits the account store after migration runs. Strictly
// read-only, safe to run repeatedly.
type Verifier struct {
	accounts  *accountstore.Store
	members   *memberstore.Store
	crossrefs *crossrefstore.Store
	log       *zap.Logger
}

func NewVerifier(accounts *accountstore.Store, members *memberstore.Store, crossrefs *crossrefstore.Store, log *zap.Logger) *Verifier {
	return &Verifier{accounts: accounts, members: members, crossrefs: crossrefs, log: log}
}

// Run scans every account and classifies it. Legacy-prefixed accounts that
// have not been migrated yet count as mismatches (their expected key is the
// primary contact's UID); accounts with no identity information at all are
// errors.
func (v *Verifier) Run(ctx context.Context) (Report, error) {
	accts, err := v.accounts.All(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("loading accounts: %w", err)
	}

	report := Report{TotalAccounts: len(accts)}
	for _, acct := range accts {
		switch {
		case acct.UID != "" && acct.ID == acct.UID:
			report.Verified = append(report.Verified, VerifiedRow{
				ID:               acct.ID,
				OrganizationName: acct.OrganizationName,
				Status:           acct.Status,
			})

		case acct.UID != "":
			row, err := v.mismatchRow(ctx, acct.ID, acct.UID, acct.OrganizationName, acct.Status)
			if err != nil {
				report.Errors = append(report.Errors, ErrorRow{ID: acct.ID, Reason: err.Error()})
				continue
			}
			report.Mismatches = append(report.Mismatches, row)

		case acct.PrimaryContactMemberID != "":
			row, err := v.mismatchRow(ctx, acct.ID, acct.PrimaryContactMemberID, acct.OrganizationName, acct.Status)
			if err != nil {
				report.Errors = append(report.Errors, ErrorRow{ID: acct.ID, Reason: err.Error()})
				continue
			}
			report.Mismatches = append(report.Mismatches, row)

		default:
			report.Errors = append(report.Errors, ErrorRow{
				ID:     acct.ID,
				Reason: "no uid or primary contact member id",
			})
		}
	}

	v.log.Info("verification run complete",
		zap.Int("total", report.TotalAccounts),
		zap.Int("verified", len(report.Verified)),
		zap.Int("mismatches", len(report.Mismatches)),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (v *Verifier) mismatchRow(ctx context.Context, oldID, expectedID, orgName, status string) (MismatchRow, error) {
	count, err := v.members.CountByAccount(ctx, oldID)
	if err != nil {
		return MismatchRow{}, fmt.Errorf("counting members: %w", err)
	}
	refs, err := v.crossrefs.CountForUser(ctx, oldID)
	if err != nil {
		return MismatchRow{}, fmt.Errorf("counting cross references: %w", err)
	}
	return MismatchRow{
		OldID:            oldID,
		ExpectedID:       expectedID,
		OrganizationName: orgName,
		Status:           status,
		MemberCount:      int(count),
		DanglingRefs:     int(refs.Messages + refs.Alerts),
	}, nil
}

// WriteCSV renders the report as one flat table with a classification
// column, suitable for spreadsheets.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"classification", "id", "expected_id", "organization_name", "status", "member_count", "dangling_refs", "reason"}); err != nil {
		return err
	}
	for _, row := range r.Verified {
		if err := cw.Write([]string{"verified", row.ID, "", row.OrganizationName, row.Status, "", "", ""}); err != nil {
			return err
		}
	}
	for _, row := range r.Mismatches {
		if err := cw.Write([]string{"mismatch", row.OldID, row.ExpectedID, row.OrganizationName, row.Status, strconv.Itoa(row.MemberCount), strconv.Itoa(row.DanglingRefs), ""}); err != nil {
			return err
		}
	}
	for _, row := range r.Errors {
		if err := cw.Write([]string{"error", row.ID, "", "", "", "", "", row.Reason}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
