package provider

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gestionis/notify-core/internal/domain"
)

func TestRegistryResolvesRegisteredSenders(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.RegisterEmail(domain.EmailBackendConsole, NewConsoleEmailSender())
	registry.RegisterSMS(domain.SMSBackendDebug, NewDebugSMSSender())
	registry.RegisterWhatsApp(domain.WhatsAppBackendDebug, NewDebugWhatsAppSender())

	if _, err := registry.Email(domain.EmailBackendConsole); err != nil {
		t.Fatalf("Email() unexpected error: %v", err)
	}
	if _, err := registry.SMS(domain.SMSBackendDebug); err != nil {
		t.Fatalf("SMS() unexpected error: %v", err)
	}
	if _, err := registry.WhatsApp(domain.WhatsAppBackendDebug); err != nil {
		t.Fatalf("WhatsApp() unexpected error: %v", err)
	}
}

func TestRegistryUnknownBackend(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	_, err := registry.Email(domain.EmailBackendSMTP)
	if err == nil {
		t.Fatal("expected error for unregistered backend")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}

func TestConsoleEmailSenderWritesMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sender := NewConsoleEmailSenderWithWriter(&buf)

	cfg := domain.EmailConfiguration{FromEmail: "noreply@example.com"}
	msg := domain.MessageLog{
		ID:        "log-9",
		Channel:   domain.ChannelEmail,
		Recipient: "user@example.com",
		Subject:   "Hi",
		Body:      "hello there",
	}

	resp, err := sender.Send(context.Background(), cfg, msg)
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if resp.MessageID != "console-log-9" {
		t.Fatalf("MessageID = %q, want console-log-9", resp.MessageID)
	}

	out := buf.String()
	if !strings.Contains(out, "To: user@example.com") {
		t.Fatalf("output missing recipient: %q", out)
	}
	if !strings.Contains(out, "hello there") {
		t.Fatalf("output missing body: %q", out)
	}
}

func TestDebugSendersSyntheticIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	sms := NewDebugSMSSenderWithWriter(&buf)
	resp, err := sms.Send(context.Background(), domain.SMSConfiguration{PhoneNumber: "+15550001111"}, domain.MessageLog{
		ID:        "log-1",
		Recipient: "+905551112233",
		Body:      "ping",
	})
	if err != nil {
		t.Fatalf("sms Send() unexpected error: %v", err)
	}
	if resp.MessageID != "debug-sms-log-1" {
		t.Fatalf("MessageID = %q, want debug-sms-log-1", resp.MessageID)
	}

	wa := NewDebugWhatsAppSenderWithWriter(&buf)
	resp, err = wa.Send(context.Background(), domain.WhatsAppConfiguration{WhatsAppNumber: "+15550001111"}, domain.MessageLog{
		ID:        "log-2",
		Recipient: "+905551112233",
		Body:      "ping",
	})
	if err != nil {
		t.Fatalf("whatsapp Send() unexpected error: %v", err)
	}
	if resp.MessageID != "debug-whatsapp-log-2" {
		t.Fatalf("MessageID = %q, want debug-whatsapp-log-2", resp.MessageID)
	}
}
