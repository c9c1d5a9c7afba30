package rowcheck

import (
	"strings"
	"testing"
)

func validCandidate() Candidate {
	return Candidate{
		Email: "expert@example.com",
		Name:  "김철수",
		Phone: "01012345678",
		Role:  "expert",
	}
}

func TestValidateAcceptsWellFormedExpertRow(t *testing.T) {
	result := Validate(validCandidate(), 2)
	if !result.Valid {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %d", len(result.Errors))
	}
}

func TestValidateRejectsMalformedEmail(t *testing.T) {
	for _, email := range []string{"", "plain", "a b@example.com", "a@b", "@example.com", "a@"} {
		c := validCandidate()
		c.Email = email
		result := Validate(c, 3)
		if result.Valid {
			t.Fatalf("expected email %q to be rejected", email)
		}
		if result.Errors[0].Code != CodeInvalidEmail {
			t.Fatalf("expected %s for %q, got %s", CodeInvalidEmail, email, result.Errors[0].Code)
		}
	}
}

func TestValidateRejectsMissingName(t *testing.T) {
	c := validCandidate()
	c.Name = "   "
	result := Validate(c, 5)
	if result.Valid {
		t.Fatal("expected whitespace-only name to be rejected")
	}
	if result.Errors[0].Code != CodeMissingName {
		t.Fatalf("expected %s, got %s", CodeMissingName, result.Errors[0].Code)
	}
}

func TestValidatePhoneRequiresKoreanMobileShape(t *testing.T) {
	cases := []struct {
		phone string
		valid bool
	}{
		{"01012345678", true},
		{"010-1234-5678", true}, // separators are stripped before matching
		{"01612345678", true},
		{"0101234567", false},   // too short
		{"010123456789", false}, // too long
		{"02012345678", false},  // not a mobile prefix
		{"", false},
	}
	for _, tc := range cases {
		c := validCandidate()
		c.Phone = tc.phone
		result := Validate(c, 2)
		if result.Valid != tc.valid {
			t.Fatalf("phone %q: expected valid=%v, got errors %v", tc.phone, tc.valid, result.Errors)
		}
	}
}

func TestValidateRoleIsCaseInsensitiveAndEmptyAllowed(t *testing.T) {
	for _, role := range []string{"expert", "EXPERT", "Organization", ""} {
		c := validCandidate()
		c.Role = role
		if role == "" || strings.EqualFold(role, "organization") {
			c.OrganizationName = "한국산업협회"
		}
		result := Validate(c, 2)
		if !result.Valid {
			t.Fatalf("role %q: expected valid, got %v", role, result.Errors)
		}
	}

	c := validCandidate()
	c.Role = "admin"
	result := Validate(c, 2)
	if result.Valid {
		t.Fatal("expected unknown role to be rejected")
	}
	if result.Errors[0].Code != CodeInvalidRole {
		t.Fatalf("expected %s, got %s", CodeInvalidRole, result.Errors[0].Code)
	}
}

func TestValidateOrganizationRoleRequiresOrganizationName(t *testing.T) {
	c := validCandidate()
	c.Role = "organization"
	c.OrganizationName = ""
	result := Validate(c, 7)
	if result.Valid {
		t.Fatal("expected organization row without org name to be rejected")
	}
	if result.Errors[0].Code != CodeMissingOrgName {
		t.Fatalf("expected %s, got %s", CodeMissingOrgName, result.Errors[0].Code)
	}
}

func TestValidateReportsEveryViolationWithRowNumber(t *testing.T) {
	result := Validate(Candidate{Role: "organization"}, 12)
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) < 3 {
		t.Fatalf("expected multiple violations, got %d", len(result.Errors))
	}
	for _, e := range result.Errors {
		if e.Row != 12 {
			t.Fatalf("expected row 12 on every error, got %d", e.Row)
		}
		if !strings.HasPrefix(e.String(), "행 12: ") {
			t.Fatalf("expected row-prefixed message, got %q", e.String())
		}
	}
}

func TestNormalizeLowercasesEmailAndStripsPhoneSeparators(t *testing.T) {
	c := Candidate{
		Email: "  Expert@Example.COM ",
		Name:  " 김철수 ",
		Phone: "010-1234-5678",
		Role:  "",
	}
	n := Normalize(c)
	if n.Email != "expert@example.com" {
		t.Fatalf("expected lowercased trimmed email, got %q", n.Email)
	}
	if n.Name != "김철수" {
		t.Fatalf("expected trimmed name, got %q", n.Name)
	}
	if n.Phone != "01012345678" {
		t.Fatalf("expected digits-only phone, got %q", n.Phone)
	}
	if n.Role != string(RoleExpert) {
		t.Fatalf("expected empty role to default to expert, got %q", n.Role)
	}
}

func TestCoerceRoleDefaultsUnknownToExpert(t *testing.T) {
	cases := map[string]Role{
		"expert":       RoleExpert,
		"ORGANIZATION": RoleOrganization,
		"":             RoleExpert,
		"manager":      RoleExpert,
	}
	for raw, want := range cases {
		if got := CoerceRole(raw); got != want {
			t.Fatalf("CoerceRole(%q) = %q, want %q", raw, got, want)
		}
	}
}
