// Package email delivers invitation emails through a transactional email
// provider (Brevo HTTP API) or a direct SMTP connection.
package email

import (
	"context"
	"fmt"

	"invite_portal_backend/platform/config"
)

const (
	subjectInviteFmt = "%s에서 초대장이 도착했습니다"
	defaultOrgLabel  = "전문가 매칭 플랫폼"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string
	MIMEType string
}

// Sender delivers invitation-related emails. A single attempt; retry policy
// lives in SendWithRetry.
type Sender interface {
	// SendInviteEmail sends the invitation email with the accept link and
	// a QR code of the same link attached.
	SendInviteEmail(ctx context.Context, toEmail, inviteeName, organizationName, role, acceptURL string) error

	// SendCustomEmail sends an arbitrary HTML email.
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendInviteEmail(context.Context, string, string, string, string, string) error {
	return nil
}

func (NoopSender) SendCustomEmail(context.Context, string, string, string) error {
	return nil
}

// NewSender builds the configured Sender implementation.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	switch cfg.GetEmailProvider() {
	case "smtp":
		return NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		), nil
	case "brevo":
		return NewBrevoSender(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}

func inviteSubject(organizationName string) string {
	if organizationName == "" {
		organizationName = defaultOrgLabel
	}
	return fmt.Sprintf(subjectInviteFmt, organizationName)
}
