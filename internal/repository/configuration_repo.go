package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gestionis/notify-core/internal/crypto"
	"github.com/gestionis/notify-core/internal/domain"
	"gorm.io/gorm"
)

// ConfigurationRepository serves the per-channel provider configurations.
// The active row is re-read for every send, so credential swaps take
// effect without a restart.
type ConfigurationRepository interface {
	GetActiveEmail(ctx context.Context) (*domain.EmailConfiguration, error)
	GetActiveSMS(ctx context.Context) (*domain.SMSConfiguration, error)
	GetActiveWhatsApp(ctx context.Context) (*domain.WhatsAppConfiguration, error)

	CreateEmail(ctx context.Context, cfg *domain.EmailConfiguration) error
	CreateSMS(ctx context.Context, cfg *domain.SMSConfiguration) error
	CreateWhatsApp(ctx context.Context, cfg *domain.WhatsAppConfiguration) error

	// Activate* flips the active flag to the named configuration,
	// deactivating any sibling inside the same transaction so the
	// partial unique index never trips.
	ActivateEmail(ctx context.Context, id string) error
	ActivateSMS(ctx context.Context, id string) error
	ActivateWhatsApp(ctx context.Context, id string) error
}

type GormConfigurationRepo struct {
	db     *gorm.DB
	cipher *crypto.Cipher
}

func NewGormConfigurationRepo(db *gorm.DB, cipher *crypto.Cipher) *GormConfigurationRepo {
	return &GormConfigurationRepo{db: db, cipher: cipher}
}

func (r *GormConfigurationRepo) GetActiveEmail(ctx context.Context) (*domain.EmailConfiguration, error) {
	var model EmailConfigurationModel
	err := r.db.WithContext(ctx).Where("active = ?", true).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no active email configuration", domain.ErrConfiguration)
	}
	if err != nil {
		return nil, err
	}
	return r.emailModelToDomain(&model)
}

func (r *GormConfigurationRepo) GetActiveSMS(ctx context.Context) (*domain.SMSConfiguration, error) {
	var model SMSConfigurationModel
	err := r.db.WithContext(ctx).Where("active = ?", true).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no active sms configuration", domain.ErrConfiguration)
	}
	if err != nil {
		return nil, err
	}
	return r.smsModelToDomain(&model)
}

func (r *GormConfigurationRepo) GetActiveWhatsApp(ctx context.Context) (*domain.WhatsAppConfiguration, error) {
	var model WhatsAppConfigurationModel
	err := r.db.WithContext(ctx).Where("active = ?", true).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no active whatsapp configuration", domain.ErrConfiguration)
	}
	if err != nil {
		return nil, err
	}
	return r.whatsappModelToDomain(&model)
}

func (r *GormConfigurationRepo) CreateEmail(ctx context.Context, cfg *domain.EmailConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ensureID(&cfg.ID)
	model, err := r.emailModelFromDomain(cfg)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	cfg.ID = model.ID
	cfg.CreatedAt = model.CreatedAt
	cfg.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormConfigurationRepo) CreateSMS(ctx context.Context, cfg *domain.SMSConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ensureID(&cfg.ID)
	model, err := r.smsModelFromDomain(cfg)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	cfg.ID = model.ID
	cfg.CreatedAt = model.CreatedAt
	cfg.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormConfigurationRepo) CreateWhatsApp(ctx context.Context, cfg *domain.WhatsAppConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ensureID(&cfg.ID)
	model, err := r.whatsappModelFromDomain(cfg)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	cfg.ID = model.ID
	cfg.CreatedAt = model.CreatedAt
	cfg.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormConfigurationRepo) ActivateEmail(ctx context.Context, id string) error {
	return r.activate(ctx, &EmailConfigurationModel{}, id)
}

func (r *GormConfigurationRepo) ActivateSMS(ctx context.Context, id string) error {
	return r.activate(ctx, &SMSConfigurationModel{}, id)
}

func (r *GormConfigurationRepo) ActivateWhatsApp(ctx context.Context, id string) error {
	return r.activate(ctx, &WhatsAppConfigurationModel{}, id)
}

func (r *GormConfigurationRepo) activate(ctx context.Context, model any, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(model).
			Where("active = ?", true).
			Update("active", false).Error; err != nil {
			return err
		}

		result := tx.Model(model).
			Where("id = ?", id).
			Update("active", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *GormConfigurationRepo) encrypt(plain string) (*string, error) {
	if plain == "" {
		return nil, nil
	}
	sealed, err := r.cipher.Encrypt(plain)
	if err != nil {
		return nil, err
	}
	return &sealed, nil
}

func (r *GormConfigurationRepo) decrypt(sealed *string) (string, error) {
	if sealed == nil {
		return "", nil
	}
	return r.cipher.Decrypt(*sealed)
}

func (r *GormConfigurationRepo) emailModelFromDomain(cfg *domain.EmailConfiguration) (*EmailConfigurationModel, error) {
	password, err := r.encrypt(cfg.Password)
	if err != nil {
		return nil, err
	}
	apiKey, err := r.encrypt(cfg.APIKey)
	if err != nil {
		return nil, err
	}

	return &EmailConfigurationModel{
		ID:               cfg.ID,
		Name:             cfg.Name,
		Backend:          cfg.Backend,
		Host:             optionalString(cfg.Host),
		Port:             optionalInt(cfg.Port),
		Username:         optionalString(cfg.Username),
		Password:         password,
		APIKey:           apiKey,
		SecurityProtocol: cfg.SecurityProtocol,
		TimeoutSeconds:   cfg.TimeoutSeconds,
		FromEmail:        cfg.FromEmail,
		CustomHeaders:    marshalStringMap(cfg.CustomHeaders),
		FailSilently:     cfg.FailSilently,
		Active:           cfg.Active,
	}, nil
}

func (r *GormConfigurationRepo) emailModelToDomain(m *EmailConfigurationModel) (*domain.EmailConfiguration, error) {
	password, err := r.decrypt(m.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	apiKey, err := r.decrypt(m.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	return &domain.EmailConfiguration{
		ID:               m.ID,
		Name:             m.Name,
		Backend:          m.Backend,
		Host:             stringValue(m.Host),
		Port:             intValue(m.Port),
		Username:         stringValue(m.Username),
		Password:         password,
		APIKey:           apiKey,
		SecurityProtocol: m.SecurityProtocol,
		TimeoutSeconds:   m.TimeoutSeconds,
		FromEmail:        m.FromEmail,
		CustomHeaders:    unmarshalStringMap(m.CustomHeaders),
		FailSilently:     m.FailSilently,
		Active:           m.Active,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

func (r *GormConfigurationRepo) smsModelFromDomain(cfg *domain.SMSConfiguration) (*SMSConfigurationModel, error) {
	accountSID, err := r.encrypt(cfg.AccountSID)
	if err != nil {
		return nil, err
	}
	authToken, err := r.encrypt(cfg.AuthToken)
	if err != nil {
		return nil, err
	}
	apiKey, err := r.encrypt(cfg.APIKey)
	if err != nil {
		return nil, err
	}

	return &SMSConfigurationModel{
		ID:             cfg.ID,
		Name:           cfg.Name,
		Backend:        cfg.Backend,
		AccountSID:     accountSID,
		AuthToken:      authToken,
		APIKey:         apiKey,
		PhoneNumber:    cfg.PhoneNumber,
		Region:         optionalString(cfg.Region),
		TimeoutSeconds: cfg.TimeoutSeconds,
		Active:         cfg.Active,
	}, nil
}

func (r *GormConfigurationRepo) smsModelToDomain(m *SMSConfigurationModel) (*domain.SMSConfiguration, error) {
	accountSID, err := r.decrypt(m.AccountSID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	authToken, err := r.decrypt(m.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	apiKey, err := r.decrypt(m.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	return &domain.SMSConfiguration{
		ID:             m.ID,
		Name:           m.Name,
		Backend:        m.Backend,
		AccountSID:     accountSID,
		AuthToken:      authToken,
		APIKey:         apiKey,
		PhoneNumber:    m.PhoneNumber,
		Region:         stringValue(m.Region),
		TimeoutSeconds: m.TimeoutSeconds,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}

func (r *GormConfigurationRepo) whatsappModelFromDomain(cfg *domain.WhatsAppConfiguration) (*WhatsAppConfigurationModel, error) {
	accountSID, err := r.encrypt(cfg.AccountSID)
	if err != nil {
		return nil, err
	}
	authToken, err := r.encrypt(cfg.AuthToken)
	if err != nil {
		return nil, err
	}

	return &WhatsAppConfigurationModel{
		ID:             cfg.ID,
		Name:           cfg.Name,
		Backend:        cfg.Backend,
		AccountSID:     accountSID,
		AuthToken:      authToken,
		WhatsAppNumber: cfg.WhatsAppNumber,
		BusinessID:     optionalString(cfg.BusinessID),
		APIVersion:     cfg.Version(),
		TimeoutSeconds: cfg.TimeoutSeconds,
		Active:         cfg.Active,
	}, nil
}

func (r *GormConfigurationRepo) whatsappModelToDomain(m *WhatsAppConfigurationModel) (*domain.WhatsAppConfiguration, error) {
	accountSID, err := r.decrypt(m.AccountSID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	authToken, err := r.decrypt(m.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	return &domain.WhatsAppConfiguration{
		ID:             m.ID,
		Name:           m.Name,
		Backend:        m.Backend,
		AccountSID:     accountSID,
		AuthToken:      authToken,
		WhatsAppNumber: m.WhatsAppNumber,
		BusinessID:     stringValue(m.BusinessID),
		APIVersion:     m.APIVersion,
		TimeoutSeconds: m.TimeoutSeconds,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}
