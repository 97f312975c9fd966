// Package mailer delivers analysis reports and account notifications over
// SMTP.
package mailer

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"stockpulse/internal/config"
	"stockpulse/internal/logging"
)

// Mailer sends email through a configured SMTP relay.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string

	// send is swapped out by tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New builds a mailer from config. Returns nil when SMTP is not configured,
// which callers treat as "email disabled".
func New(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		logging.Warning("SMTP not configured, email delivery disabled")
		return nil
	}
	return &Mailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
		send: smtp.SendMail,
	}
}

// Message is a single outbound email. HTMLBody is optional; when set the
// message is sent as multipart/alternative with an SVG chart attachment slot.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Send delivers one message through the relay.
func (m *Mailer) Send(msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("message has no recipient")
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	payload := m.encode(msg)

	if err := m.send(addr, auth, m.from, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	logging.Debug("Sent mail %q to %s", msg.Subject, msg.To)
	return nil
}

const altBoundary = "stockpulse-alt"

func (m *Mailer) encode(msg Message) []byte {
	var b strings.Builder
	b.Grow(1024)

	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.TextBody)
		return []byte(b.String())
	}

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altBoundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", altBoundary, msg.TextBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", altBoundary, msg.HTMLBody)
	fmt.Fprintf(&b, "--%s--\r\n", altBoundary)
	return []byte(b.String())
}
