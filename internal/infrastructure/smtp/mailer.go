package smtp

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/go-file-exchange/internal/config"
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

// NewMailer returns an SMTP mailer, or a console mailer when SMTP_HOST is empty.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		if cfg.IsProduction() {
			slog.Warn("SMTP_HOST is not set; verification emails will only be logged")
		}
		return NewConsoleMailer(slog.Default())
	}
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, buildMessage(m.from, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// consoleMailer writes messages to the log instead of sending them.
// Intended for local development only.
type consoleMailer struct {
	log *slog.Logger
}

func NewConsoleMailer(log *slog.Logger) Mailer {
	return &consoleMailer{log: log}
}

func (c *consoleMailer) SendEmail(to, subject, body string) error {
	c.log.Info("email not sent, SMTP disabled", "to", to, "subject", subject, "body", body)
	return nil
}
