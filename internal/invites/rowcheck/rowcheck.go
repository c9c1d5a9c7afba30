// Package rowcheck validates a single candidate invitation record against
// the format and business rules of the bulk invite pipeline. Validation is
// pure: no I/O, no side effects, deterministic for a given input.
package rowcheck

import (
	"fmt"
	"regexp"
	"strings"

	"invite_portal_backend/platform/phone"
)

// Role is a recognized invitee role.
type Role string

const (
	RoleExpert       Role = "expert"
	RoleOrganization Role = "organization"
)

// Code identifies the rule a candidate violated.
type Code string

const (
	CodeInvalidEmail   Code = "INVALID_EMAIL"
	CodeMissingName    Code = "MISSING_NAME"
	CodeInvalidPhone   Code = "INVALID_PHONE"
	CodeInvalidRole    Code = "INVALID_ROLE"
	CodeMissingOrgName Code = "MISSING_ORG_NAME"
	CodeDuplicateEmail Code = "DUPLICATE_EMAIL"
)

// RFC-lite on purpose: the upstream contract only promises this shape.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Candidate is one unvalidated invitation record, as produced by the
// spreadsheet parser or manual entry.
type Candidate struct {
	Email            string `json:"email"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Role             string `json:"role"`
	OrganizationName string `json:"organizationName"`
	Position         string `json:"position"`
}

// RowError is a single rule violation, tagged with the 1-indexed sheet row
// it refers to.
type RowError struct {
	Row     int    `json:"row"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// String renders the user-facing row-prefixed message.
func (e RowError) String() string {
	return fmt.Sprintf("행 %d: %s", e.Row, e.Message)
}

// Result is the outcome of validating one candidate.
type Result struct {
	Valid  bool
	Errors []RowError
}

// Validate checks one candidate against all row rules and reports every
// violation. It never panics and always returns a structured result.
func Validate(c Candidate, rowNumber int) Result {
	var errs []RowError

	email := strings.TrimSpace(c.Email)
	if email == "" || !emailPattern.MatchString(email) {
		errs = append(errs, RowError{
			Row:     rowNumber,
			Code:    CodeInvalidEmail,
			Message: "유효하지 않은 이메일 형식입니다",
		})
	}

	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, RowError{
			Row:     rowNumber,
			Code:    CodeMissingName,
			Message: "이름을 입력해주세요",
		})
	}

	if !phone.IsKoreanMobile(c.Phone) {
		errs = append(errs, RowError{
			Row:     rowNumber,
			Code:    CodeInvalidPhone,
			Message: "유효하지 않은 전화번호 형식입니다 (01012345678)",
		})
	}

	role := strings.ToLower(strings.TrimSpace(c.Role))
	if role != "" && role != string(RoleExpert) && role != string(RoleOrganization) {
		errs = append(errs, RowError{
			Row:     rowNumber,
			Code:    CodeInvalidRole,
			Message: "역할은 expert 또는 organization이어야 합니다",
		})
	}

	if role == string(RoleOrganization) && strings.TrimSpace(c.OrganizationName) == "" {
		errs = append(errs, RowError{
			Row:     rowNumber,
			Code:    CodeMissingOrgName,
			Message: "기관 회원은 기관명을 입력해야 합니다",
		})
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// Normalize returns the candidate in canonical form: email lowercased and
// trimmed, name/org/position trimmed, phone reduced to digits, role
// lowercased with empty defaulting to expert.
func Normalize(c Candidate) Candidate {
	role := strings.ToLower(strings.TrimSpace(c.Role))
	if role == "" {
		role = string(RoleExpert)
	}
	return Candidate{
		Email:            strings.ToLower(strings.TrimSpace(c.Email)),
		Name:             strings.TrimSpace(c.Name),
		Phone:            phone.Digits(c.Phone),
		Role:             role,
		OrganizationName: strings.TrimSpace(c.OrganizationName),
		Position:         strings.TrimSpace(c.Position),
	}
}

// CoerceRole maps a free-form role cell to a recognized role, defaulting
// anything unrecognized to expert. The spreadsheet parser uses this lenient
// mapping; manual entry goes through Validate which rejects bad roles.
func CoerceRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleOrganization)) {
		return RoleOrganization
	}
	return RoleExpert
}
