package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
)

// Notifier delivers transactional email. Delivery failure never invalidates
// already-committed state; callers log and move on.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogNotifier is a stub implementation that writes messages to the logger.
// Used in development and tests where no SMTP relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a logging notifier stub.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("email", "to", to, "subject", subject, "body", body)
	return nil
}

// SMTPNotifier delivers mail through a plain-auth SMTP relay.
type SMTPNotifier struct {
	host     string
	port     string
	username string
	password string
	sender   string
}

// NewSMTPNotifier builds an SMTP-backed notifier.
func NewSMTPNotifier(host, port, username, password, sender string) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, username: username, password: password, sender: sender}
}

// Send submits the message to the relay.
func (n *SMTPNotifier) Send(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + n.sender,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := net.JoinHostPort(n.host, n.port)
	auth := smtp.PlainAuth("", n.username, n.password, n.host)
	if err := smtp.SendMail(addr, auth, n.sender, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
