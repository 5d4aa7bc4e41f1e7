// internal/app/system/csvutil/invites.go
package csvutil

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/eurofed/memberhub/internal/app/system/normalize"
)

// InviteRow is one normalized row of a bulk-invite upload.
type InviteRow struct {
	PersonalName string
	Email        string
	JobTitle     string
}

// RowError describes one rejected row.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ParseInvitesCSV reads the whole upload, skips a header if present, and
// normalizes each row. Rows missing a name or email are reported in errs and
// excluded from rows; the upload as a whole only fails on unreadable input
// or when it exceeds MaxRows. It never writes anywhere; safe to call before
// any mutations.
func ParseInvitesCSV(r io.Reader) (rows []InviteRow, errs []RowError, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	first, ferr := reader.Read()
	if ferr == io.EOF {
		return nil, nil, nil
	}
	if ferr != nil {
		return nil, nil, ferr
	}
	line++

	// Strip a UTF-8 BOM on the first cell.
	if len(first) > 0 {
		first[0] = strings.TrimPrefix(first[0], "\uFEFF")
	}

	var raw [][]string
	var lines []int
	if isHeader(first) {
		// header detected, skip
	} else {
		raw = append(raw, first)
		lines = append(lines, line)
	}

	for {
		rec, e := reader.Read()
		if e == io.EOF {
			break
		}
		line++
		if e != nil || len(rec) == 0 {
			continue
		}
		raw = append(raw, rec)
		lines = append(lines, line)
		if len(raw) > MaxRows {
			return nil, nil, ErrTooManyRows
		}
	}

	for i, rec := range raw {
		row := InviteRow{}
		if len(rec) > 0 {
			row.PersonalName = normalize.Name(rec[0])
		}
		if len(rec) > 1 {
			row.Email = normalize.Email(rec[1])
		}
		if len(rec) > 2 {
			row.JobTitle = normalize.Name(rec[2])
		}
		if row.PersonalName == "" && row.Email == "" && row.JobTitle == "" {
			continue
		}
		if row.PersonalName == "" {
			errs = append(errs, RowError{Line: lines[i], Reason: "missing name"})
			continue
		}
		if row.Email == "" || !strings.Contains(row.Email, "@") {
			errs = append(errs, RowError{Line: lines[i], Reason: "missing or invalid email"})
			continue
		}
		rows = append(rows, row)
	}
	return rows, errs, nil
}

func isHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	c0 := strings.ToLower(strings.TrimSpace(rec[0]))
	c1 := strings.ToLower(strings.TrimSpace(rec[1]))
	return (c0 == "full name" || c0 == "name" || c0 == "personal name") && c1 == "email"
}
