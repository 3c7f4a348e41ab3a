package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a message log entry.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusRead      Status = "READ"
	StatusFailed    Status = "FAILED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next keeps the status
// machine monotone: PENDING -> SENT -> DELIVERED -> READ, with FAILED
// reachable from PENDING and from a retried FAILED back to SENT.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusSent || next == StatusFailed
	case StatusSent:
		return next == StatusDelivered
	case StatusDelivered:
		return next == StatusRead
	case StatusFailed:
		return next == StatusSent || next == StatusFailed
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Channel represents the delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// MetadataKeyHTML is the message log metadata key carrying the rendered HTML body.
const MetadataKeyHTML = "html_content"

// MessageLog is the durable record of one notification attempt and its lifecycle.
// One row per submission; retries update the same row.
type MessageLog struct {
	ID                string
	Channel           Channel
	Sender            string
	Recipient         string
	CC                string // comma-joined, email only
	Subject           string
	Body              string
	TemplateName      string
	Status            Status
	SentAt            *time.Time
	DeliveredAt       *time.Time
	ReadAt            *time.Time
	Provider          string
	ProviderMessageID *string
	ErrorMessage      *string
	Retries           int
	NextRetryAt       *time.Time
	Metadata          map[string]string
	CreatedBy         *string
	UpdatedBy         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (m *MessageLog) Validate() error {
	if strings.TrimSpace(m.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if !m.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, m.Channel)
	}
	if m.Channel == ChannelEmail && strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required for email messages", ErrValidation)
	}
	if strings.TrimSpace(m.Body) == "" && m.HTMLBody() == "" {
		return fmt.Errorf("%w: message body (text or HTML) is required", ErrValidation)
	}
	if m.CC != "" && m.Channel != ChannelEmail {
		return fmt.Errorf("%w: cc is only supported for email messages", ErrValidation)
	}
	return nil
}

// HTMLBody returns the rendered HTML body carried in metadata, if any.
func (m *MessageLog) HTMLBody() string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata[MetadataKeyHTML]
}

func (m *MessageLog) SetHTMLBody(html string) {
	if html == "" {
		return
	}
	if m.Metadata == nil {
		m.Metadata = make(map[string]string, 1)
	}
	m.Metadata[MetadataKeyHTML] = html
}

// CCList splits the comma-joined CC field into trimmed addresses.
func (m *MessageLog) CCList() []string {
	if strings.TrimSpace(m.CC) == "" {
		return nil
	}
	parts := strings.Split(m.CC, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// MarkSent records a successful provider handoff. A retried FAILED row
// transitions back to SENT and its last error is cleared.
func (m *MessageLog) MarkSent(now time.Time, providerName string, providerMessageID string) error {
	if !m.Status.CanTransition(StatusSent) {
		return fmt.Errorf("%w: cannot transition %s to SENT", ErrConflict, m.Status)
	}
	m.Status = StatusSent
	if m.SentAt == nil {
		ts := now.UTC()
		m.SentAt = &ts
	}
	m.Provider = providerName
	if providerMessageID != "" && m.ProviderMessageID == nil {
		m.ProviderMessageID = &providerMessageID
	}
	m.ErrorMessage = nil
	m.NextRetryAt = nil
	return nil
}

// MarkFailed records a failed attempt with its error text.
func (m *MessageLog) MarkFailed(errorMessage string) error {
	if !m.Status.CanTransition(StatusFailed) {
		return fmt.Errorf("%w: cannot transition %s to FAILED", ErrConflict, m.Status)
	}
	m.Status = StatusFailed
	m.ErrorMessage = &errorMessage
	return nil
}

// MarkDelivered records a delivery receipt. No inbound receiver is wired;
// the transition exists so the schema stays receipt-complete.
func (m *MessageLog) MarkDelivered(now time.Time) error {
	if !m.Status.CanTransition(StatusDelivered) {
		return fmt.Errorf("%w: cannot transition %s to DELIVERED", ErrConflict, m.Status)
	}
	m.Status = StatusDelivered
	if m.DeliveredAt == nil {
		ts := now.UTC()
		m.DeliveredAt = &ts
	}
	return nil
}

// MarkRead records a read receipt.
func (m *MessageLog) MarkRead(now time.Time) error {
	if !m.Status.CanTransition(StatusRead) {
		return fmt.Errorf("%w: cannot transition %s to READ", ErrConflict, m.Status)
	}
	m.Status = StatusRead
	if m.ReadAt == nil {
		ts := now.UTC()
		m.ReadAt = &ts
	}
	return nil
}
