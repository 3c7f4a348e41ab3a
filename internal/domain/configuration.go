package domain

import (
	"fmt"
	"strings"
	"time"
)

// EmailBackend enumerates the supported email provider backends.
type EmailBackend string

const (
	EmailBackendSMTP     EmailBackend = "SMTP"
	EmailBackendSendGrid EmailBackend = "SENDGRID"
	EmailBackendSES      EmailBackend = "SES"
	EmailBackendConsole  EmailBackend = "CONSOLE"
	EmailBackendFile     EmailBackend = "FILE"
)

func (b EmailBackend) String() string { return string(b) }

func (b EmailBackend) IsValid() bool {
	switch b {
	case EmailBackendSMTP, EmailBackendSendGrid, EmailBackendSES, EmailBackendConsole, EmailBackendFile:
		return true
	}
	return false
}

// SecurityProtocol is the SMTP transport security mode.
type SecurityProtocol string

const (
	SecurityNone     SecurityProtocol = "none"
	SecurityTLS      SecurityProtocol = "TLS"
	SecuritySSL      SecurityProtocol = "SSL"
	SecuritySTARTTLS SecurityProtocol = "STARTTLS"
)

func (p SecurityProtocol) IsValid() bool {
	switch p {
	case SecurityNone, SecurityTLS, SecuritySSL, SecuritySTARTTLS:
		return true
	}
	return false
}

const (
	defaultEmailTimeoutSeconds    = 10
	defaultSMSTimeoutSeconds      = 10
	defaultWhatsAppTimeoutSeconds = 15
)

// EmailConfiguration holds the credentials and defaults for one email backend.
// At most one row is active at a time, enforced by a partial unique index.
type EmailConfiguration struct {
	ID               string
	Name             string
	Backend          EmailBackend
	Host             string
	Port             int
	Username         string
	Password         string // encrypted at rest
	APIKey           string // encrypted at rest
	SecurityProtocol SecurityProtocol
	TimeoutSeconds   int
	FromEmail        string
	CustomHeaders    map[string]string
	FailSilently     bool
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c *EmailConfiguration) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: configuration name is required", ErrValidation)
	}
	if !c.Backend.IsValid() {
		return fmt.Errorf("%w: invalid email backend %q", ErrValidation, c.Backend)
	}
	if strings.TrimSpace(c.FromEmail) == "" {
		return fmt.Errorf("%w: from_email is required", ErrValidation)
	}
	switch c.Backend {
	case EmailBackendSMTP:
		if strings.TrimSpace(c.Host) == "" || c.Port == 0 {
			return fmt.Errorf("%w: SMTP requires host and port", ErrValidation)
		}
		if !c.SecurityProtocol.IsValid() {
			return fmt.Errorf("%w: invalid security protocol %q", ErrValidation, c.SecurityProtocol)
		}
	case EmailBackendSendGrid:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: SendGrid requires an API key", ErrValidation)
		}
	}
	return nil
}

func (c *EmailConfiguration) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultEmailTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SMSBackend enumerates the supported SMS provider backends.
type SMSBackend string

const (
	SMSBackendTwilio SMSBackend = "TWILIO"
	SMSBackendDebug  SMSBackend = "DEBUG"
)

func (b SMSBackend) String() string { return string(b) }

func (b SMSBackend) IsValid() bool {
	switch b {
	case SMSBackendTwilio, SMSBackendDebug:
		return true
	}
	return false
}

// SMSConfiguration holds the credentials and defaults for one SMS backend.
type SMSConfiguration struct {
	ID             string
	Name           string
	Backend        SMSBackend
	AccountSID     string // encrypted at rest
	AuthToken      string // encrypted at rest
	APIKey         string // encrypted at rest
	PhoneNumber    string
	Region         string
	TimeoutSeconds int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *SMSConfiguration) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: configuration name is required", ErrValidation)
	}
	if !c.Backend.IsValid() {
		return fmt.Errorf("%w: invalid sms backend %q", ErrValidation, c.Backend)
	}
	if strings.TrimSpace(c.PhoneNumber) == "" {
		return fmt.Errorf("%w: sender phone number is required", ErrValidation)
	}
	if c.Backend == SMSBackendTwilio && (c.AccountSID == "" || c.AuthToken == "") {
		return fmt.Errorf("%w: Twilio requires account SID and auth token", ErrValidation)
	}
	return nil
}

func (c *SMSConfiguration) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultSMSTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WhatsAppBackend enumerates the supported WhatsApp provider backends.
type WhatsAppBackend string

const (
	WhatsAppBackendTwilio WhatsAppBackend = "TWILIO"
	WhatsAppBackendMeta   WhatsAppBackend = "META"
	WhatsAppBackendDebug  WhatsAppBackend = "DEBUG"
)

func (b WhatsAppBackend) String() string { return string(b) }

func (b WhatsAppBackend) IsValid() bool {
	switch b {
	case WhatsAppBackendTwilio, WhatsAppBackendMeta, WhatsAppBackendDebug:
		return true
	}
	return false
}

// WhatsAppConfiguration holds the credentials and defaults for one WhatsApp backend.
type WhatsAppConfiguration struct {
	ID             string
	Name           string
	Backend        WhatsAppBackend
	AccountSID     string // encrypted at rest
	AuthToken      string // encrypted at rest
	WhatsAppNumber string
	BusinessID     string
	APIVersion     string
	TimeoutSeconds int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *WhatsAppConfiguration) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: configuration name is required", ErrValidation)
	}
	if !c.Backend.IsValid() {
		return fmt.Errorf("%w: invalid whatsapp backend %q", ErrValidation, c.Backend)
	}
	if strings.TrimSpace(c.WhatsAppNumber) == "" {
		return fmt.Errorf("%w: whatsapp business number is required", ErrValidation)
	}
	switch c.Backend {
	case WhatsAppBackendTwilio:
		if c.AccountSID == "" || c.AuthToken == "" {
			return fmt.Errorf("%w: Twilio requires account SID and auth token", ErrValidation)
		}
	case WhatsAppBackendMeta:
		if c.BusinessID == "" {
			return fmt.Errorf("%w: Meta business ID is required", ErrValidation)
		}
	}
	return nil
}

func (c *WhatsAppConfiguration) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultWhatsAppTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *WhatsAppConfiguration) Version() string {
	if strings.TrimSpace(c.APIVersion) == "" {
		return "v15.0"
	}
	return c.APIVersion
}
