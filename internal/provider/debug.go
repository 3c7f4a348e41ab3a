package provider

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gestionis/notify-core/internal/domain"
)

// DebugSMSSender logs SMS sends instead of contacting a provider.
type DebugSMSSender struct {
	out io.Writer
}

func NewDebugSMSSender() *DebugSMSSender {
	return &DebugSMSSender{out: os.Stdout}
}

func NewDebugSMSSenderWithWriter(out io.Writer) *DebugSMSSender {
	return &DebugSMSSender{out: out}
}

func (s *DebugSMSSender) Send(_ context.Context, cfg domain.SMSConfiguration, msg domain.MessageLog) (*SendResult, error) {
	from := msg.Sender
	if from == "" {
		from = cfg.PhoneNumber
	}

	if _, err := fmt.Fprintf(s.out, "SMS %s -> %s: %s\n", from, msg.Recipient, msg.Body); err != nil {
		return nil, fmt.Errorf("debug write failed: %w", err)
	}

	return &SendResult{MessageID: "debug-sms-" + msg.ID}, nil
}

// DebugWhatsAppSender logs WhatsApp sends instead of contacting a provider.
type DebugWhatsAppSender struct {
	out io.Writer
}

func NewDebugWhatsAppSender() *DebugWhatsAppSender {
	return &DebugWhatsAppSender{out: os.Stdout}
}

func NewDebugWhatsAppSenderWithWriter(out io.Writer) *DebugWhatsAppSender {
	return &DebugWhatsAppSender{out: out}
}

func (s *DebugWhatsAppSender) Send(_ context.Context, cfg domain.WhatsAppConfiguration, msg domain.MessageLog) (*SendResult, error) {
	from := msg.Sender
	if from == "" {
		from = cfg.WhatsAppNumber
	}

	if _, err := fmt.Fprintf(s.out, "WHATSAPP %s -> %s: %s\n", from, msg.Recipient, msg.Body); err != nil {
		return nil, fmt.Errorf("debug write failed: %w", err)
	}

	return &SendResult{MessageID: "debug-whatsapp-" + msg.ID}, nil
}
