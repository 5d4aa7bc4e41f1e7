// internal/app/system/mailer/mailer.go

// Package mailer builds and delivers transactional email. Delivery is
// behind the Sender interface so deployments without an SMTP relay can fall
// back to logging.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is one outbound message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// SMTPSender delivers via a plain SMTP relay with optional AUTH.
type SMTPSender struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
	Host     string
}

func NewSMTPSender(addr, from, username, password string) *SMTPSender {
	host := addr
	if i := strings.IndexByte(addr, ':'); i >= 0 {
		host = addr[:i]
	}
	return &SMTPSender{Addr: addr, From: from, Username: username, Password: password, Host: host}
}

func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", e.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", e.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(e.TextBody)

	if err := smtp.SendMail(s.Addr, auth, s.From, []string{e.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending mail to %s: %w", e.To, err)
	}
	return nil
}

// LogSender records outbound mail in the log instead of delivering it.
// Used in development and as the fallback when no relay is configured.
type LogSender struct {
	Log *zap.Logger
}

func (s *LogSender) Send(ctx context.Context, e Email) error {
	s.Log.Info("outbound email (not delivered)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}
