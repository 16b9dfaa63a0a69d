// Package mail sends outbound email, currently just verification links.
package mail

import (
	"fmt"
	"log/slog"
	"net/url"

	"unihub/internal/config"
	"unihub/internal/middleware"

	"gopkg.in/gomail.v2"
)

// Mailer dispatches outbound email.
type Mailer interface {
	SendVerification(to, username, token string) error
}

// VerificationURL builds the link embedded in the verification email.
func VerificationURL(baseURL, token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", baseURL, url.QueryEscape(token))
}

func verificationBody(username, link string) string {
	return fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Welcome to UniHub! Confirm your email address to finish creating your account:</p>
<p><a href="%s">Verify my email</a></p>
<p>If you did not sign up, you can ignore this message.</p>`,
		username, link)
}

// SMTPMailer sends mail through an SMTP server.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

// NewSMTPMailer builds a mailer from the application configuration.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:    cfg.MailFrom,
		baseURL: cfg.BaseURL,
	}
}

func (m *SMTPMailer) SendVerification(to, username, token string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your UniHub account")
	msg.SetBody("text/html", verificationBody(username, VerificationURL(m.baseURL, token)))

	return m.dialer.DialAndSend(msg)
}

// LogMailer logs verification links instead of sending them. Used in
// development when no SMTP server is configured.
type LogMailer struct {
	baseURL string
}

// NewLogMailer returns a mailer that only logs.
func NewLogMailer(baseURL string) *LogMailer {
	return &LogMailer{baseURL: baseURL}
}

func (m *LogMailer) SendVerification(to, username, token string) error {
	middleware.Logger.Info("verification email (not sent, SMTP unconfigured)",
		slog.String("to", to),
		slog.String("username", username),
		slog.String("link", VerificationURL(m.baseURL, token)),
	)
	return nil
}

// FromConfig picks the SMTP mailer when a host is configured, the logging
// mailer otherwise.
func FromConfig(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return NewLogMailer(cfg.BaseURL)
	}
	return NewSMTPMailer(cfg)
}
