package provider

import (
	"context"

	"github.com/gestionis/notify-core/internal/domain"
)

// EmailSender is the outbound email delivery port.
type EmailSender interface {
	Send(ctx context.Context, cfg domain.EmailConfiguration, msg domain.MessageLog) (*SendResult, error)
}

// SMSSender is the outbound SMS delivery port.
type SMSSender interface {
	Send(ctx context.Context, cfg domain.SMSConfiguration, msg domain.MessageLog) (*SendResult, error)
}

// WhatsAppSender is the outbound WhatsApp delivery port.
type WhatsAppSender interface {
	Send(ctx context.Context, cfg domain.WhatsAppConfiguration, msg domain.MessageLog) (*SendResult, error)
}

// SendResult stores provider call metadata for audit and persistence.
type SendResult struct {
	StatusCode int
	Body       string
	MessageID  string
}
