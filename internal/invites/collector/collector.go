// Package collector assembles a clean invitation batch from candidate rows.
// Rows are processed strictly in input order: the first occurrence of an
// email wins and later duplicates are rejected, so the outcome is
// deterministic for a given input. The same pass runs on parsed spreadsheet
// rows and manually entered rows.
package collector

import (
	"fmt"
	"strings"

	"invite_portal_backend/internal/invites/rowcheck"
)

// Row is one candidate tagged with the user-facing row number it came from
// (sheet row for uploads, 1-based position for manual entry).
type Row struct {
	Number    int
	Candidate rowcheck.Candidate
}

// Outcome is the result of a collect pass. Accepted rows keep the row
// number they came from so previews can echo it back.
type Outcome struct {
	Accepted []Row
	Rejected []string
}

// Collect deduplicates and validates rows in order. Duplicate emails
// (case-insensitive) are rejected without running the row validator;
// all other rows are validated and, when valid, normalized and accepted.
func Collect(rows []Row) Outcome {
	outcome := Outcome{}
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		email := strings.ToLower(strings.TrimSpace(row.Candidate.Email))

		if _, dup := seen[email]; dup && email != "" {
			rowErr := rowcheck.RowError{
				Row:     row.Number,
				Code:    rowcheck.CodeDuplicateEmail,
				Message: fmt.Sprintf("중복된 이메일 주소입니다 (%s)", email),
			}
			outcome.Rejected = append(outcome.Rejected, rowErr.String())
			continue
		}

		check := rowcheck.Validate(row.Candidate, row.Number)
		if !check.Valid {
			for _, rowErr := range check.Errors {
				outcome.Rejected = append(outcome.Rejected, rowErr.String())
			}
			continue
		}

		outcome.Accepted = append(outcome.Accepted, Row{
			Number:    row.Number,
			Candidate: rowcheck.Normalize(row.Candidate),
		})
		seen[email] = struct{}{}
	}

	return outcome
}

// displayLimit bounds how many row errors are shown before truncation.
const displayLimit = 10

// TruncateMessages limits an error list for display, appending a
// "... 외 N개 오류" note when entries were cut.
func TruncateMessages(messages []string) []string {
	if len(messages) <= displayLimit {
		return messages
	}
	truncated := append([]string(nil), messages[:displayLimit]...)
	return append(truncated, fmt.Sprintf("... 외 %d개 오류", len(messages)-displayLimit))
}
