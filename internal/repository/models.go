package repository

import (
	"encoding/json"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageLogModel is the persistence model for the message_logs table.
type MessageLogModel struct {
	ID                string         `gorm:"type:uuid;primaryKey"`
	Channel           domain.Channel `gorm:"type:varchar(10);not null"`
	Sender            string         `gorm:"type:varchar(255);not null"`
	Recipient         string         `gorm:"type:varchar(255);not null"`
	CC                *string        `gorm:"type:text"`
	Subject           *string        `gorm:"type:varchar(255)"`
	Body              string         `gorm:"type:text;not null"`
	TemplateName      *string        `gorm:"type:varchar(255)"`
	Status            domain.Status  `gorm:"type:varchar(10);not null"`
	SentAt            *time.Time     `gorm:"type:timestamptz"`
	DeliveredAt       *time.Time     `gorm:"type:timestamptz"`
	ReadAt            *time.Time     `gorm:"type:timestamptz"`
	Provider          *string        `gorm:"type:varchar(50)"`
	ProviderMessageID *string        `gorm:"type:varchar(255)"`
	ErrorMessage      *string        `gorm:"type:text"`
	Retries           int            `gorm:"not null;default:0"`
	NextRetryAt       *time.Time     `gorm:"type:timestamptz"`
	ClaimedAt         *time.Time     `gorm:"type:timestamptz"`
	Metadata          []byte         `gorm:"type:jsonb"`
	CreatedBy         *string        `gorm:"type:varchar(255)"`
	UpdatedBy         *string        `gorm:"type:varchar(255)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (MessageLogModel) TableName() string {
	return "message_logs"
}

// EmailConfigurationModel is the persistence model for email_configurations.
// Password and api_key hold ciphertext; the repository owns the cipher.
type EmailConfigurationModel struct {
	ID               string                  `gorm:"type:uuid;primaryKey"`
	Name             string                  `gorm:"type:varchar(100);not null;unique"`
	Backend          domain.EmailBackend     `gorm:"type:varchar(20);not null"`
	Host             *string                 `gorm:"type:varchar(255)"`
	Port             *int                    `gorm:"type:int"`
	Username         *string                 `gorm:"type:varchar(255)"`
	Password         *string                 `gorm:"type:text"`
	APIKey           *string                 `gorm:"type:text"`
	SecurityProtocol domain.SecurityProtocol `gorm:"type:varchar(20);not null;default:TLS"`
	TimeoutSeconds   int                     `gorm:"not null;default:10"`
	FromEmail        string                  `gorm:"type:varchar(255);not null"`
	CustomHeaders    []byte                  `gorm:"type:jsonb"`
	FailSilently     bool                    `gorm:"not null;default:false"`
	Active           bool                    `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (EmailConfigurationModel) TableName() string {
	return "email_configurations"
}

// SMSConfigurationModel is the persistence model for sms_configurations.
type SMSConfigurationModel struct {
	ID             string            `gorm:"type:uuid;primaryKey"`
	Name           string            `gorm:"type:varchar(100);not null;unique"`
	Backend        domain.SMSBackend `gorm:"type:varchar(20);not null"`
	AccountSID     *string           `gorm:"type:text"`
	AuthToken      *string           `gorm:"type:text"`
	APIKey         *string           `gorm:"type:text"`
	PhoneNumber    string            `gorm:"type:varchar(20);not null"`
	Region         *string           `gorm:"type:varchar(50)"`
	TimeoutSeconds int               `gorm:"not null;default:10"`
	Active         bool              `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (SMSConfigurationModel) TableName() string {
	return "sms_configurations"
}

// WhatsAppConfigurationModel is the persistence model for whatsapp_configurations.
type WhatsAppConfigurationModel struct {
	ID             string                 `gorm:"type:uuid;primaryKey"`
	Name           string                 `gorm:"type:varchar(100);not null;unique"`
	Backend        domain.WhatsAppBackend `gorm:"type:varchar(20);not null"`
	AccountSID     *string                `gorm:"type:text"`
	AuthToken      *string                `gorm:"type:text"`
	WhatsAppNumber string                 `gorm:"type:varchar(20);not null"`
	BusinessID     *string                `gorm:"type:varchar(255)"`
	APIVersion     string                 `gorm:"type:varchar(10);not null;default:v15.0"`
	TimeoutSeconds int                    `gorm:"not null;default:15"`
	Active         bool                   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (WhatsAppConfigurationModel) TableName() string {
	return "whatsapp_configurations"
}

// MessageTemplateModel is the persistence model for message_templates.
type MessageTemplateModel struct {
	ID             string         `gorm:"type:uuid;primaryKey"`
	Name           string         `gorm:"type:varchar(100);not null;unique"`
	Description    *string        `gorm:"type:text"`
	TemplateType   domain.Channel `gorm:"type:varchar(10);not null"`
	Subject        *string        `gorm:"type:varchar(255)"`
	Content        string         `gorm:"type:text;not null"`
	HTMLContent    *string        `gorm:"type:text"`
	DefaultContext []byte         `gorm:"type:jsonb"`
	Active         bool           `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (MessageTemplateModel) TableName() string {
	return "message_templates"
}

// ScheduledMessageModel is the persistence model for scheduled_messages.
type ScheduledMessageModel struct {
	ID             string     `gorm:"type:uuid;primaryKey"`
	MessageLogID   string     `gorm:"type:uuid;not null;unique"`
	ScheduledTime  time.Time  `gorm:"type:timestamptz;not null"`
	Recurring      bool       `gorm:"not null;default:false"`
	RecurrenceRule []byte     `gorm:"type:jsonb"`
	Processed      bool       `gorm:"not null;default:false"`
	Canceled       bool       `gorm:"not null;default:false"`
	LastRun        *time.Time `gorm:"type:timestamptz"`
	NextRun        *time.Time `gorm:"type:timestamptz"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (ScheduledMessageModel) TableName() string {
	return "scheduled_messages"
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func marshalStringMap(m map[string]string) []byte {
	if len(m) == 0 {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}

func unmarshalStringMap(data []byte) map[string]string {
	if len(data) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func messageLogModelFromDomain(m *domain.MessageLog) *MessageLogModel {
	if m == nil {
		return nil
	}

	return &MessageLogModel{
		ID:                m.ID,
		Channel:           m.Channel,
		Sender:            m.Sender,
		Recipient:         m.Recipient,
		CC:                optionalString(m.CC),
		Subject:           optionalString(m.Subject),
		Body:              m.Body,
		TemplateName:      optionalString(m.TemplateName),
		Status:            m.Status,
		SentAt:            m.SentAt,
		DeliveredAt:       m.DeliveredAt,
		ReadAt:            m.ReadAt,
		Provider:          optionalString(m.Provider),
		ProviderMessageID: m.ProviderMessageID,
		ErrorMessage:      m.ErrorMessage,
		Retries:           m.Retries,
		NextRetryAt:       m.NextRetryAt,
		Metadata:          marshalStringMap(m.Metadata),
		CreatedBy:         m.CreatedBy,
		UpdatedBy:         m.UpdatedBy,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func messageLogModelToDomain(m *MessageLogModel) *domain.MessageLog {
	if m == nil {
		return nil
	}

	return &domain.MessageLog{
		ID:                m.ID,
		Channel:           m.Channel,
		Sender:            m.Sender,
		Recipient:         m.Recipient,
		CC:                stringValue(m.CC),
		Subject:           stringValue(m.Subject),
		Body:              m.Body,
		TemplateName:      stringValue(m.TemplateName),
		Status:            m.Status,
		SentAt:            m.SentAt,
		DeliveredAt:       m.DeliveredAt,
		ReadAt:            m.ReadAt,
		Provider:          stringValue(m.Provider),
		ProviderMessageID: m.ProviderMessageID,
		ErrorMessage:      m.ErrorMessage,
		Retries:           m.Retries,
		NextRetryAt:       m.NextRetryAt,
		Metadata:          unmarshalStringMap(m.Metadata),
		CreatedBy:         m.CreatedBy,
		UpdatedBy:         m.UpdatedBy,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func templateModelToDomain(m *MessageTemplateModel) *domain.MessageTemplate {
	if m == nil {
		return nil
	}

	return &domain.MessageTemplate{
		ID:             m.ID,
		Name:           m.Name,
		Description:    stringValue(m.Description),
		TemplateType:   m.TemplateType,
		Subject:        stringValue(m.Subject),
		Content:        m.Content,
		HTMLContent:    stringValue(m.HTMLContent),
		DefaultContext: unmarshalStringMap(m.DefaultContext),
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func templateModelFromDomain(t *domain.MessageTemplate) *MessageTemplateModel {
	if t == nil {
		return nil
	}

	return &MessageTemplateModel{
		ID:             t.ID,
		Name:           t.Name,
		Description:    optionalString(t.Description),
		TemplateType:   t.TemplateType,
		Subject:        optionalString(t.Subject),
		Content:        t.Content,
		HTMLContent:    optionalString(t.HTMLContent),
		DefaultContext: marshalStringMap(t.DefaultContext),
		Active:         t.Active,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func scheduleModelFromDomain(s *domain.ScheduledMessage) *ScheduledMessageModel {
	if s == nil {
		return nil
	}

	var rule []byte
	if s.Rule != nil {
		rule, _ = json.Marshal(s.Rule)
	}

	return &ScheduledMessageModel{
		ID:             s.ID,
		MessageLogID:   s.MessageLogID,
		ScheduledTime:  s.ScheduledTime,
		Recurring:      s.Recurring,
		RecurrenceRule: rule,
		Processed:      s.Processed,
		Canceled:       s.Canceled,
		LastRun:        s.LastRun,
		NextRun:        s.NextRun,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func scheduleModelToDomain(m *ScheduledMessageModel) *domain.ScheduledMessage {
	if m == nil {
		return nil
	}

	var rule *domain.RecurrenceRule
	if len(m.RecurrenceRule) > 0 {
		var r domain.RecurrenceRule
		if err := json.Unmarshal(m.RecurrenceRule, &r); err == nil {
			rule = &r
		}
	}

	return &domain.ScheduledMessage{
		ID:            m.ID,
		MessageLogID:  m.MessageLogID,
		ScheduledTime: m.ScheduledTime,
		Recurring:     m.Recurring,
		Rule:          rule,
		Processed:     m.Processed,
		Canceled:      m.Canceled,
		LastRun:       m.LastRun,
		NextRun:       m.NextRun,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ensureID assigns a fresh UUID when the caller did not supply one.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
