// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/coursehub/internal/config"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"gopkg.in/gomail.v2"
)

// dialer sends composed messages; *gomail.Dialer satisfies it
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var otpTemplate = template.Must(template.New("otp").Parse(
	`<p>Hello {{.Name}},</p>
<p>Your password reset code is <strong>{{.OTP}}</strong>.</p>
<p>It expires in {{.Minutes}} minutes. If you did not request a reset, ignore this email.</p>`))

// Mailer sends email through an SMTP server
type Mailer struct {
	dialer dialer
	from   string
	logger *logging.Logger
}

// New creates a mailer for the configured SMTP server
func New(cfg config.MailConfig, logger *logging.Logger) *Mailer {
	return NewWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, logger)
}

// NewWithDialer creates a mailer on top of an existing dialer
func NewWithDialer(d dialer, from string, logger *logging.Logger) *Mailer {
	return &Mailer{dialer: d, from: from, logger: logger}
}

// Send delivers an HTML email
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.WithField("to", to).ErrorWithErr("Failed to send email", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.WithField("to", to).Debug("Email sent")
	return nil
}

// SendPasswordResetOTP emails a password reset code
func (m *Mailer) SendPasswordResetOTP(ctx context.Context, to, name, otp string, ttl time.Duration) error {
	var body strings.Builder
	err := otpTemplate.Execute(&body, struct {
		Name    string
		OTP     string
		Minutes int
	}{Name: name, OTP: otp, Minutes: int(ttl.Minutes())})
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	return m.Send(ctx, to, "Your password reset code", body.String())
}
