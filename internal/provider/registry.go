package provider

import (
	"fmt"

	"github.com/gestionis/notify-core/internal/domain"
)

// Registry resolves a sender implementation from the backend tag carried
// by the active channel configuration.
type Registry struct {
	email    map[domain.EmailBackend]EmailSender
	sms      map[domain.SMSBackend]SMSSender
	whatsapp map[domain.WhatsAppBackend]WhatsAppSender
}

func NewRegistry() *Registry {
	return &Registry{
		email:    make(map[domain.EmailBackend]EmailSender),
		sms:      make(map[domain.SMSBackend]SMSSender),
		whatsapp: make(map[domain.WhatsAppBackend]WhatsAppSender),
	}
}

func (r *Registry) RegisterEmail(backend domain.EmailBackend, sender EmailSender) {
	r.email[backend] = sender
}

func (r *Registry) RegisterSMS(backend domain.SMSBackend, sender SMSSender) {
	r.sms[backend] = sender
}

func (r *Registry) RegisterWhatsApp(backend domain.WhatsAppBackend, sender WhatsAppSender) {
	r.whatsapp[backend] = sender
}

func (r *Registry) Email(backend domain.EmailBackend) (EmailSender, error) {
	sender, ok := r.email[backend]
	if !ok {
		return nil, fmt.Errorf("%w: no email backend registered for %q", domain.ErrConfiguration, backend)
	}
	return sender, nil
}

func (r *Registry) SMS(backend domain.SMSBackend) (SMSSender, error) {
	sender, ok := r.sms[backend]
	if !ok {
		return nil, fmt.Errorf("%w: no sms backend registered for %q", domain.ErrConfiguration, backend)
	}
	return sender, nil
}

func (r *Registry) WhatsApp(backend domain.WhatsAppBackend) (WhatsAppSender, error) {
	sender, ok := r.whatsapp[backend]
	if !ok {
		return nil, fmt.Errorf("%w: no whatsapp backend registered for %q", domain.ErrConfiguration, backend)
	}
	return sender, nil
}
