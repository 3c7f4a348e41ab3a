package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gestionis/notify-core/internal/domain"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	// GetActiveByName resolves an active template by name and channel type.
	// Inactive or missing templates are not resolvable.
	GetActiveByName(ctx context.Context, name string, templateType domain.Channel) (*domain.MessageTemplate, error)
	Create(ctx context.Context, t *domain.MessageTemplate) error
}

type GormTemplateRepo struct {
	db *gorm.DB
}

func NewGormTemplateRepo(db *gorm.DB) *GormTemplateRepo {
	return &GormTemplateRepo{db: db}
}

func (r *GormTemplateRepo) GetActiveByName(ctx context.Context, name string, templateType domain.Channel) (*domain.MessageTemplate, error) {
	var model MessageTemplateModel
	err := r.db.WithContext(ctx).
		Where("name = ? AND template_type = ? AND active = ?", name, templateType, true).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: active template %q of type %s not found", domain.ErrValidation, name, templateType)
	}
	if err != nil {
		return nil, err
	}
	return templateModelToDomain(&model), nil
}

func (r *GormTemplateRepo) Create(ctx context.Context, t *domain.MessageTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	ensureID(&t.ID)
	model := templateModelFromDomain(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if t != nil {
		*t = *templateModelToDomain(model)
	}
	return nil
}
