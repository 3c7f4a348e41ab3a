package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *domain.ScheduledMessage) error
	GetByMessageLogID(ctx context.Context, messageLogID string) (*domain.ScheduledMessage, error)

	// ClaimDue selects due rows (scheduled_time <= now, not processed, not
	// canceled) and marks them processed with last_run = now inside one
	// transaction, so two sweeps never race on the same row.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledMessage, error)

	// Reschedule re-arms a recurring row for its next occurrence.
	Reschedule(ctx context.Context, id string, nextRun time.Time) error

	Cancel(ctx context.Context, id string) error
}

type GormScheduleRepo struct {
	db *gorm.DB
}

func NewGormScheduleRepo(db *gorm.DB) *GormScheduleRepo {
	return &GormScheduleRepo{db: db}
}

func (r *GormScheduleRepo) Create(ctx context.Context, s *domain.ScheduledMessage) error {
	model := scheduleModelFromDomain(s)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if s != nil {
		*s = *scheduleModelToDomain(model)
	}
	return nil
}

func (r *GormScheduleRepo) GetByMessageLogID(ctx context.Context, messageLogID string) (*domain.ScheduledMessage, error) {
	var model ScheduledMessageModel
	err := r.db.WithContext(ctx).
		Where("message_log_id = ?", messageLogID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return scheduleModelToDomain(&model), nil
}

func (r *GormScheduleRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledMessage, error) {
	var claimed []domain.ScheduledMessage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var models []ScheduledMessageModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("scheduled_time <= ? AND processed = ? AND canceled = ?", now, false, false).
			Order("scheduled_time ASC").
			Limit(limit).
			Find(&models).Error
		if err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}

		ids := make([]string, 0, len(models))
		for i := range models {
			ids = append(ids, models[i].ID)
		}

		lastRun := now.UTC()
		if err := tx.Model(&ScheduledMessageModel{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"processed": true,
				"last_run":  lastRun,
			}).Error; err != nil {
			return err
		}

		claimed = make([]domain.ScheduledMessage, 0, len(models))
		for i := range models {
			sm := scheduleModelToDomain(&models[i])
			sm.Processed = true
			sm.LastRun = &lastRun
			claimed = append(claimed, *sm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *GormScheduleRepo) Reschedule(ctx context.Context, id string, nextRun time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ScheduledMessageModel{}).
		Where("id = ? AND canceled = ?", id, false).
		Updates(map[string]any{
			"processed":      false,
			"scheduled_time": nextRun.UTC(),
			"next_run":       nextRun.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormScheduleRepo) Cancel(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&ScheduledMessageModel{}).
		Where("id = ? AND processed = ?", id, false).
		Update("canceled", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}
