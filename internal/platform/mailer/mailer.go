// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

/*
Package mailer provides outbound email delivery for the Inkpress platform.

Two implementations are provided:

  - SMTP: Real delivery through a configured relay (production).
  - Log: Writes the message to the structured log instead of sending
    (development, and any environment without SMTP credentials).

Callers depend only on the Mailer interface; delivery failures are returned
as errors and never panic.
*/
package mailer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Message is a single outbound email. Text is always required; when HTML
// is set too, the message goes out as multipart/alternative with the text
// part as the fallback.
type Message struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages to a recipient.
type Mailer interface {
	Send(ctx context.Context, message Message) error
}

// # SMTP Delivery

// smtpDialTimeout bounds the TCP connection attempt to the relay.
const smtpDialTimeout = 10 * time.Second

// SMTPMailer delivers mail through an authenticated SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	logger   *slog.Logger
}

// NewSMTP creates a mailer backed by the given SMTP relay.
func NewSMTP(host string, port int, username, password string, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		logger:   logger,
	}
}

/*
Send delivers the message through the relay.

The context deadline is honored for the connection phase; the SMTP
conversation itself is bounded by the connection's deadline.
*/
func (m *SMTPMailer) Send(ctx context.Context, message Message) error {
	address := net.JoinHostPort(m.host, fmt.Sprintf("%d", m.port))

	dialer := net.Dialer{Timeout: smtpDialTimeout}
	connection, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("mailer_smtp_dial_failed: %w", err)
	}

	// Apply a hard deadline to the whole SMTP conversation.
	deadline := time.Now().Add(smtpDialTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = connection.SetDeadline(deadline)

	client, err := smtp.NewClient(connection, m.host)
	if err != nil {
		_ = connection.Close()
		return fmt.Errorf("mailer_smtp_handshake_failed: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(nil); err != nil {
			return fmt.Errorf("mailer_smtp_starttls_failed: %w", err)
		}
	}

	if m.username != "" {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mailer_smtp_auth_failed: %w", err)
		}
	}

	if err := client.Mail(message.From); err != nil {
		return fmt.Errorf("mailer_smtp_sender_rejected: %w", err)
	}
	if err := client.Rcpt(message.To); err != nil {
		return fmt.Errorf("mailer_smtp_recipient_rejected: %w", err)
	}

	bodyWriter, err := client.Data()
	if err != nil {
		return fmt.Errorf("mailer_smtp_data_failed: %w", err)
	}
	if _, err := bodyWriter.Write([]byte(encode(message))); err != nil {
		return fmt.Errorf("mailer_smtp_write_failed: %w", err)
	}
	if err := bodyWriter.Close(); err != nil {
		return fmt.Errorf("mailer_smtp_commit_failed: %w", err)
	}

	if err := client.Quit(); err != nil {
		// The message was already accepted; a failed QUIT is not a delivery error.
		m.logger.Warn("smtp quit failed", slog.Any("error", err))
	}

	m.logger.Info("email sent",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
	)

	return nil
}

// encode renders the message as an RFC 5322 email: plain text only, or
// multipart/alternative when an HTML body is present.
func encode(message Message) string {
	var builder strings.Builder
	builder.WriteString("From: " + message.From + "\r\n")
	builder.WriteString("To: " + message.To + "\r\n")
	builder.WriteString("Subject: " + message.Subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")

	if message.HTML == "" {
		builder.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		builder.WriteString("\r\n")
		builder.WriteString(message.Text)
		builder.WriteString("\r\n")
		return builder.String()
	}

	boundary := multipartBoundary(message)
	builder.WriteString(`Content-Type: multipart/alternative; boundary="` + boundary + `"` + "\r\n")
	builder.WriteString("\r\n")

	// Text part first: mail clients prefer the last alternative they support.
	builder.WriteString("--" + boundary + "\r\n")
	builder.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(message.Text)
	builder.WriteString("\r\n")

	builder.WriteString("--" + boundary + "\r\n")
	builder.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(message.HTML)
	builder.WriteString("\r\n")

	builder.WriteString("--" + boundary + "--\r\n")
	return builder.String()
}

// multipartBoundary derives a boundary that cannot collide with the
// message bodies.
func multipartBoundary(message Message) string {
	boundary := "inkpress-" + fmt.Sprintf("%x", sha256.Sum256([]byte(message.Text+"\x00"+message.HTML)))[:24]
	return boundary
}

// # Log Delivery

// LogMailer writes messages to the structured log instead of sending them.
// Used in development so verification codes are visible without a relay.
type LogMailer struct {
	logger *slog.Logger
}

// NewLog creates a mailer that only logs.
func NewLog(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message and always succeeds.
func (m *LogMailer) Send(_ context.Context, message Message) error {
	m.logger.Info("email (log delivery)",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
		slog.String("body", message.Text),
	)
	return nil
}
