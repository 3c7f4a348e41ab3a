package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListParams struct {
	Status    *domain.Status
	Channel   *domain.Channel
	Recipient *string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

type MessageLogRepository interface {
	Create(ctx context.Context, m *domain.MessageLog) error
	GetByID(ctx context.Context, id string) (*domain.MessageLog, error)
	List(ctx context.Context, params ListParams) ([]domain.MessageLog, int64, error)

	// ClaimForSend locks the row and returns it when it is processable by a
	// send task: PENDING, or FAILED awaiting a re-enqueued retry. A nil row
	// with nil error means the task should ack and skip.
	ClaimForSend(ctx context.Context, id string, maxRetries int) (*domain.MessageLog, error)

	MarkSent(ctx context.Context, id string, providerName string, providerMessageID string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
	MarkFailedWithRetry(ctx context.Context, id string, errorMessage string, nextRetryAt time.Time) error

	GetDueForRetry(ctx context.Context, limit int) ([]domain.MessageLog, error)
	ClearNextRetryAt(ctx context.Context, id string) error

	SoftDelete(ctx context.Context, id string) error
}

type GormMessageLogRepo struct {
	db *gorm.DB
}

func NewGormMessageLogRepo(db *gorm.DB) *GormMessageLogRepo {
	return &GormMessageLogRepo{db: db}
}

func (r *GormMessageLogRepo) Create(ctx context.Context, m *domain.MessageLog) error {
	model := messageLogModelFromDomain(m)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if m != nil {
		*m = *messageLogModelToDomain(model)
	}
	return nil
}

func (r *GormMessageLogRepo) GetByID(ctx context.Context, id string) (*domain.MessageLog, error) {
	var model MessageLogModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return messageLogModelToDomain(&model), nil
}

func (r *GormMessageLogRepo) List(ctx context.Context, params ListParams) ([]domain.MessageLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&MessageLogModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Channel != nil {
		query = query.Where("channel = ?", *params.Channel)
	}
	if params.Recipient != nil {
		query = query.Where("recipient = ?", *params.Recipient)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []MessageLogModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	logs := make([]domain.MessageLog, 0, len(models))
	for i := range models {
		logs = append(logs, *messageLogModelToDomain(&models[i]))
	}

	return logs, total, nil
}

// claimStaleAfter bounds how long a claim stamp blocks other workers. A
// crashed worker's claim expires after this window and the row becomes
// claimable again; the window must exceed the longest per-send timeout.
const claimStaleAfter = 2 * time.Minute

// claimActive reports whether a claim stamp still blocks other workers.
func claimActive(claimedAt *time.Time, now time.Time) bool {
	return claimedAt != nil && now.Sub(*claimedAt) < claimStaleAfter
}

func (r *GormMessageLogRepo) ClaimForSend(ctx context.Context, id string, maxRetries int) (*domain.MessageLog, error) {
	var claimed *domain.MessageLog

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model MessageLogModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		// A live claim stamp means another worker holds this row; duplicate
		// enqueues must not dispatch twice.
		if claimActive(model.ClaimedAt, now) {
			return nil
		}

		switch model.Status {
		case domain.StatusPending:
			// first attempt
		case domain.StatusFailed:
			// retry path: the retry scanner clears next_retry_at before
			// re-enqueueing; anything else is terminal.
			if model.NextRetryAt != nil || model.Retries < 1 || model.Retries > maxRetries {
				return nil
			}
		default:
			return nil
		}

		if err := tx.Model(&MessageLogModel{}).
			Where("id = ?", id).
			Update("claimed_at", now).Error; err != nil {
			return err
		}

		claimed = messageLogModelToDomain(&model)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *GormMessageLogRepo) MarkSent(ctx context.Context, id string, providerName string, providerMessageID string, sentAt time.Time) error {
	updates := map[string]any{
		"status":        domain.StatusSent,
		"provider":      providerName,
		"error_message": nil,
		"next_retry_at": nil,
		"claimed_at":    nil,
		"sent_at":       gorm.Expr("COALESCE(sent_at, ?)", sentAt.UTC()),
	}
	if providerMessageID != "" {
		// set-once: never overwrite a provider-assigned id
		updates["provider_message_id"] = gorm.Expr("COALESCE(provider_message_id, ?)", providerMessageID)
	}

	result := r.db.WithContext(ctx).
		Model(&MessageLogModel{}).
		Where("id = ? AND status IN ?", id, []domain.Status{domain.StatusPending, domain.StatusFailed}).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormMessageLogRepo) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	result := r.db.WithContext(ctx).
		Model(&MessageLogModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        domain.StatusFailed,
			"error_message": errorMessage,
			"next_retry_at": nil,
			"claimed_at":    nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormMessageLogRepo) MarkFailedWithRetry(ctx context.Context, id string, errorMessage string, nextRetryAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&MessageLogModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        domain.StatusFailed,
			"error_message": errorMessage,
			"next_retry_at": nextRetryAt.UTC(),
			"claimed_at":    nil,
			"retries":       gorm.Expr("retries + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormMessageLogRepo) GetDueForRetry(ctx context.Context, limit int) ([]domain.MessageLog, error) {
	var models []MessageLogModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at <= ?", domain.StatusFailed, time.Now()).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	logs := make([]domain.MessageLog, 0, len(models))
	for i := range models {
		logs = append(logs, *messageLogModelToDomain(&models[i]))
	}

	return logs, nil
}

func (r *GormMessageLogRepo) ClearNextRetryAt(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&MessageLogModel{}).
		Where("id = ?", id).
		Update("next_retry_at", nil).Error
}

func (r *GormMessageLogRepo) SoftDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&MessageLogModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
