package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type inviteEmailData struct {
	Title            string
	Heading          string
	InviteeName      string
	OrganizationName string
	RoleLabel        string
	CTALabel         string
	CTAURL           string
}

func renderEmailTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func roleLabel(role string) string {
	if role == "organization" {
		return "기관 회원"
	}
	return "전문가 회원"
}

func buildInviteEmail(inviteeName, organizationName, role, acceptURL string) (string, error) {
	org := organizationName
	if org == "" {
		org = defaultOrgLabel
	}
	return renderEmailTemplate("invite.html", inviteEmailData{
		Title:            "초대장",
		Heading:          "초대장이 도착했습니다",
		InviteeName:      inviteeName,
		OrganizationName: org,
		RoleLabel:        roleLabel(role),
		CTALabel:         "초대 수락하기",
		CTAURL:           acceptURL,
	})
}
