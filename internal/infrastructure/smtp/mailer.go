package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/claimease-api/internal/config"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// MagicLinkBody renders the sign-in email. The link is the only credential,
// so the body carries nothing else of value.
func MagicLinkBody(link string, expiresInMinutes int) string {
	return fmt.Sprintf(
		"Sign in to ClaimEase by opening the link below.\r\n\r\n%s\r\n\r\nThe link expires in %d minutes and can be used once. If you didn't request it, you can ignore this email.",
		link, expiresInMinutes,
	)
}
