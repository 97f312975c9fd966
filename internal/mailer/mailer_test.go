package mailer

import (
	"net/smtp"
	"strings"
	"testing"

	"stockpulse/internal/config"
)

func testMailer() (*Mailer, *capturedSend) {
	captured := &capturedSend{}
	m := &Mailer{
		host: "smtp.example.com",
		port: 587,
		from: "reports@stockpulse.example",
		send: captured.send,
	}
	return m, captured
}

type capturedSend struct {
	addr string
	from string
	to   []string
	msg  []byte
}

func (c *capturedSend) send(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	c.addr = addr
	c.from = from
	c.to = to
	c.msg = msg
	return nil
}

func TestNewDisabledWithoutConfig(t *testing.T) {
	cfg := &config.Config{}
	if New(cfg) != nil {
		t.Error("expected nil mailer when SMTP is unconfigured")
	}
}

func TestSendPlainText(t *testing.T) {
	m, captured := testMailer()

	err := m.Send(Message{
		To:       "trader@example.com",
		Subject:  "RELIANCE analysis",
		TextBody: "Close is above R4.",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if captured.addr != "smtp.example.com:587" {
		t.Errorf("unexpected relay addr %s", captured.addr)
	}
	if len(captured.to) != 1 || captured.to[0] != "trader@example.com" {
		t.Errorf("unexpected recipients %v", captured.to)
	}
	body := string(captured.msg)
	if !strings.Contains(body, "Content-Type: text/plain") {
		t.Error("expected plain text content type")
	}
	if !strings.Contains(body, "Close is above R4.") {
		t.Error("expected body text in payload")
	}
}

func TestSendMultipart(t *testing.T) {
	m, captured := testMailer()

	err := m.Send(Message{
		To:       "trader@example.com",
		Subject:  "TCS analysis",
		TextBody: "plain",
		HTMLBody: "<h1>TCS</h1>",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	body := string(captured.msg)
	if !strings.Contains(body, "multipart/alternative") {
		t.Error("expected multipart message")
	}
	if !strings.Contains(body, "<h1>TCS</h1>") {
		t.Error("expected HTML part in payload")
	}
}

func TestSendRequiresRecipient(t *testing.T) {
	m, _ := testMailer()
	if err := m.Send(Message{Subject: "x"}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}
