// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

// Package mail delivers one-time codes over email. No third-party mail
// library is used; plain SMTP covers the single message shape this service
// sends.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"text/template"
	"time"

	"github.com/samber/oops"

	"github.com/driftfile/driftfile/internal/auth"
)

// Compile-time interface checks.
var (
	_ auth.CodeSender = (*SMTPSender)(nil)
	_ auth.CodeSender = (*LogSender)(nil)
)

// codeEmailTemplate is the body of the verification email.
var codeEmailTemplate = template.Must(template.New("code").Parse(`Hi {{.FullName}},

This is your DriftFile verification code:

{{.Code}}

The code is valid for {{printf "%.0f" .ExpiresIn.Minutes}} minutes and can be
used only once. If you did not request a code, you can ignore this email.

Regards,

The DriftFile team
`))

// emailParams is passed as data when executing the email template.
type emailParams struct {
	FullName  string
	Code      string
	ExpiresIn time.Duration
}

// SMTPConfig holds the settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers codes through an SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a new SMTPSender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, oops.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, oops.Errorf("smtp port is required")
	}
	if cfg.From == "" {
		return nil, oops.Errorf("smtp from address is required")
	}
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}, nil
}

// SendCode delivers the plaintext code to the address. Failures are reported
// to the caller; the issuer does not retry them.
func (s *SMTPSender) SendCode(ctx context.Context, email, fullName, code string, expiresIn time.Duration) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("MAIL_SEND_FAILED").Wrap(err)
	}

	msg, err := buildMessage(s.cfg.From, email, fullName, code, expiresIn)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.From, []string{email}, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "smtp send").
			With("host", s.cfg.Host).
			Wrap(err)
	}

	return nil
}

// buildMessage renders the full RFC 822 message for a code email.
func buildMessage(from, to, fullName, code string, expiresIn time.Duration) ([]byte, error) {
	var body bytes.Buffer
	err := codeEmailTemplate.Execute(&body, emailParams{
		FullName:  fullName,
		Code:      code,
		ExpiresIn: expiresIn,
	})
	if err != nil {
		return nil, oops.Code("MAIL_TEMPLATE_FAILED").
			With("operation", "execute code template").
			Wrap(err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: Your DriftFile verification code\r\n")
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

// LogSender writes codes to the log instead of delivering them. Development
// use only.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new LogSender. A nil logger falls back to
// slog.Default.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// SendCode logs the code instead of sending it.
func (s *LogSender) SendCode(ctx context.Context, email, fullName, code string, expiresIn time.Duration) error {
	s.logger.InfoContext(ctx, "one-time code issued (log delivery)",
		"email", email,
		"code", code,
		"expires_in", expiresIn.String(),
	)
	return nil
}
