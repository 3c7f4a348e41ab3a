package service

import (
	"context"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
	"github.com/gestionis/notify-core/internal/provider"
	"github.com/gestionis/notify-core/internal/queue"
	"github.com/gestionis/notify-core/internal/repository"
)

type fakeMessageLogRepo struct {
	createFn              func(ctx context.Context, m *domain.MessageLog) error
	getByIDFn             func(ctx context.Context, id string) (*domain.MessageLog, error)
	listFn                func(ctx context.Context, params repository.ListParams) ([]domain.MessageLog, int64, error)
	claimForSendFn        func(ctx context.Context, id string, maxRetries int) (*domain.MessageLog, error)
	markSentFn            func(ctx context.Context, id, providerName, providerMessageID string, sentAt time.Time) error
	markFailedFn          func(ctx context.Context, id, errorMessage string) error
	markFailedWithRetryFn func(ctx context.Context, id, errorMessage string, nextRetryAt time.Time) error
	getDueForRetryFn      func(ctx context.Context, limit int) ([]domain.MessageLog, error)
	clearNextRetryAtFn    func(ctx context.Context, id string) error
	softDeleteFn          func(ctx context.Context, id string) error
}

func (f *fakeMessageLogRepo) Create(ctx context.Context, m *domain.MessageLog) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, m)
}

func (f *fakeMessageLogRepo) GetByID(ctx context.Context, id string) (*domain.MessageLog, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeMessageLogRepo) List(ctx context.Context, params repository.ListParams) ([]domain.MessageLog, int64, error) {
	if f.listFn == nil {
		return nil, 0, nil
	}
	return f.listFn(ctx, params)
}

func (f *fakeMessageLogRepo) ClaimForSend(ctx context.Context, id string, maxRetries int) (*domain.MessageLog, error) {
	if f.claimForSendFn == nil {
		return nil, nil
	}
	return f.claimForSendFn(ctx, id, maxRetries)
}

func (f *fakeMessageLogRepo) MarkSent(ctx context.Context, id, providerName, providerMessageID string, sentAt time.Time) error {
	if f.markSentFn == nil {
		return nil
	}
	return f.markSentFn(ctx, id, providerName, providerMessageID, sentAt)
}

func (f *fakeMessageLogRepo) MarkFailed(ctx context.Context, id, errorMessage string) error {
	if f.markFailedFn == nil {
		return nil
	}
	return f.markFailedFn(ctx, id, errorMessage)
}

func (f *fakeMessageLogRepo) MarkFailedWithRetry(ctx context.Context, id, errorMessage string, nextRetryAt time.Time) error {
	if f.markFailedWithRetryFn == nil {
		return nil
	}
	return f.markFailedWithRetryFn(ctx, id, errorMessage, nextRetryAt)
}

func (f *fakeMessageLogRepo) GetDueForRetry(ctx context.Context, limit int) ([]domain.MessageLog, error) {
	if f.getDueForRetryFn == nil {
		return nil, nil
	}
	return f.getDueForRetryFn(ctx, limit)
}

func (f *fakeMessageLogRepo) ClearNextRetryAt(ctx context.Context, id string) error {
	if f.clearNextRetryAtFn == nil {
		return nil
	}
	return f.clearNextRetryAtFn(ctx, id)
}

func (f *fakeMessageLogRepo) SoftDelete(ctx context.Context, id string) error {
	if f.softDeleteFn == nil {
		return nil
	}
	return f.softDeleteFn(ctx, id)
}

type fakeConfigurationRepo struct {
	getActiveEmailFn    func(ctx context.Context) (*domain.EmailConfiguration, error)
	getActiveSMSFn      func(ctx context.Context) (*domain.SMSConfiguration, error)
	getActiveWhatsAppFn func(ctx context.Context) (*domain.WhatsAppConfiguration, error)
}

func (f *fakeConfigurationRepo) GetActiveEmail(ctx context.Context) (*domain.EmailConfiguration, error) {
	if f.getActiveEmailFn == nil {
		return nil, domain.ErrConfiguration
	}
	return f.getActiveEmailFn(ctx)
}

func (f *fakeConfigurationRepo) GetActiveSMS(ctx context.Context) (*domain.SMSConfiguration, error) {
	if f.getActiveSMSFn == nil {
		return nil, domain.ErrConfiguration
	}
	return f.getActiveSMSFn(ctx)
}

func (f *fakeConfigurationRepo) GetActiveWhatsApp(ctx context.Context) (*domain.WhatsAppConfiguration, error) {
	if f.getActiveWhatsAppFn == nil {
		return nil, domain.ErrConfiguration
	}
	return f.getActiveWhatsAppFn(ctx)
}

func (f *fakeConfigurationRepo) CreateEmail(context.Context, *domain.EmailConfiguration) error {
	return nil
}

func (f *fakeConfigurationRepo) CreateSMS(context.Context, *domain.SMSConfiguration) error {
	return nil
}

func (f *fakeConfigurationRepo) CreateWhatsApp(context.Context, *domain.WhatsAppConfiguration) error {
	return nil
}

func (f *fakeConfigurationRepo) ActivateEmail(context.Context, string) error    { return nil }
func (f *fakeConfigurationRepo) ActivateSMS(context.Context, string) error      { return nil }
func (f *fakeConfigurationRepo) ActivateWhatsApp(context.Context, string) error { return nil }

type fakeScheduleRepo struct {
	createFn             func(ctx context.Context, s *domain.ScheduledMessage) error
	getByMessageLogIDFn  func(ctx context.Context, messageLogID string) (*domain.ScheduledMessage, error)
	claimDueFn           func(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledMessage, error)
	rescheduleFn         func(ctx context.Context, id string, nextRun time.Time) error
	cancelFn             func(ctx context.Context, id string) error
}

func (f *fakeScheduleRepo) Create(ctx context.Context, s *domain.ScheduledMessage) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, s)
}

func (f *fakeScheduleRepo) GetByMessageLogID(ctx context.Context, messageLogID string) (*domain.ScheduledMessage, error) {
	if f.getByMessageLogIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByMessageLogIDFn(ctx, messageLogID)
}

func (f *fakeScheduleRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledMessage, error) {
	if f.claimDueFn == nil {
		return nil, nil
	}
	return f.claimDueFn(ctx, now, limit)
}

func (f *fakeScheduleRepo) Reschedule(ctx context.Context, id string, nextRun time.Time) error {
	if f.rescheduleFn == nil {
		return nil
	}
	return f.rescheduleFn(ctx, id, nextRun)
}

func (f *fakeScheduleRepo) Cancel(ctx context.Context, id string) error {
	if f.cancelFn == nil {
		return nil
	}
	return f.cancelFn(ctx, id)
}

type fakeTemplateRepo struct {
	getActiveByNameFn func(ctx context.Context, name string, templateType domain.Channel) (*domain.MessageTemplate, error)
}

func (f *fakeTemplateRepo) GetActiveByName(ctx context.Context, name string, templateType domain.Channel) (*domain.MessageTemplate, error) {
	if f.getActiveByNameFn == nil {
		return nil, domain.ErrValidation
	}
	return f.getActiveByNameFn(ctx, name, templateType)
}

func (f *fakeTemplateRepo) Create(context.Context, *domain.MessageTemplate) error { return nil }

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, task queue.SendTask) error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, task queue.SendTask) error {
	if f.publishFn == nil {
		return nil
	}
	return f.publishFn(ctx, queueName, task)
}

func (f *fakePublisher) Close() error { return nil }

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.TaskHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.TaskHandler) error {
	if f.consumeFn == nil {
		<-ctx.Done()
		return nil
	}
	return f.consumeFn(ctx, queueName, handler)
}

func (f *fakeConsumer) Close() error { return nil }

type fakeRateLimiter struct {
	waitFn func(ctx context.Context, channel string) error
}

func (f *fakeRateLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

func (f *fakeRateLimiter) Wait(ctx context.Context, channel string) error {
	if f.waitFn == nil {
		return nil
	}
	return f.waitFn(ctx, channel)
}

type fakeEmailSender struct {
	sendFn func(ctx context.Context, cfg domain.EmailConfiguration, msg domain.MessageLog) (*provider.SendResult, error)
}

func (f *fakeEmailSender) Send(ctx context.Context, cfg domain.EmailConfiguration, msg domain.MessageLog) (*provider.SendResult, error) {
	if f.sendFn == nil {
		return &provider.SendResult{}, nil
	}
	return f.sendFn(ctx, cfg, msg)
}

type fakeSMSSender struct {
	sendFn func(ctx context.Context, cfg domain.SMSConfiguration, msg domain.MessageLog) (*provider.SendResult, error)
}

func (f *fakeSMSSender) Send(ctx context.Context, cfg domain.SMSConfiguration, msg domain.MessageLog) (*provider.SendResult, error) {
	if f.sendFn == nil {
		return &provider.SendResult{}, nil
	}
	return f.sendFn(ctx, cfg, msg)
}
