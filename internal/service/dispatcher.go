package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gestionis/notify-core/internal/domain"
	"github.com/gestionis/notify-core/internal/queue"
	"github.com/gestionis/notify-core/internal/repository"
	"github.com/gestionis/notify-core/internal/template"
	"go.uber.org/zap"
)

// SendRequest is one message submission. One of Body, HTMLBody or
// TemplateName must be set; rendering fills only the fields the caller
// left empty.
type SendRequest struct {
	Channel       domain.Channel
	Sender        string
	Recipient     string
	CC            []string
	Subject       string
	Body          string
	HTMLBody      string
	TemplateName  string
	Context       map[string]string
	Metadata      map[string]string
	ScheduledTime *time.Time
	Recurring     bool
	Rule          *domain.RecurrenceRule
	CreatedBy     string
	FailSilently  bool
}

type DispatcherService struct {
	logs      repository.MessageLogRepository
	schedules repository.ScheduleRepository
	templates repository.TemplateRepository
	configs   repository.ConfigurationRepository
	publisher queue.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewDispatcherService(
	logs repository.MessageLogRepository,
	schedules repository.ScheduleRepository,
	templates repository.TemplateRepository,
	configs repository.ConfigurationRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*DispatcherService, error) {
	if logs == nil {
		return nil, fmt.Errorf("message log repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatcherService{
		logs:      logs,
		schedules: schedules,
		templates: templates,
		configs:   configs,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// SendNotification validates a submission, persists a PENDING message log
// and either schedules it or enqueues it for immediate dispatch. When the
// caller sets FailSilently, or the active email configuration defaults it
// on, submission errors are swallowed and a nil log is returned.
func (s *DispatcherService) SendNotification(ctx context.Context, req SendRequest) (*domain.MessageLog, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := s.sendNotification(ctx, req)
	if err != nil && (req.FailSilently || s.failSilentlyDefault(ctx, req.Channel)) {
		s.logger.Warn("submission failed, suppressed by fail_silently",
			zap.String("channel", req.Channel.String()),
			zap.String("recipient", req.Recipient),
			zap.Error(err),
		)
		return nil, nil
	}
	return log, err
}

func (s *DispatcherService) sendNotification(ctx context.Context, req SendRequest) (*domain.MessageLog, error) {
	if !req.Channel.IsValid() {
		return nil, fmt.Errorf("%w: invalid channel %q", domain.ErrValidation, req.Channel)
	}
	if strings.TrimSpace(req.Recipient) == "" {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Body) == "" && strings.TrimSpace(req.HTMLBody) == "" &&
		strings.TrimSpace(req.TemplateName) == "" {
		return nil, fmt.Errorf("%w: body, html body or template name is required", domain.ErrValidation)
	}

	sender, err := s.resolveSender(ctx, req)
	if err != nil {
		return nil, err
	}

	subject, body, htmlBody := req.Subject, req.Body, req.HTMLBody
	if req.TemplateName != "" {
		tpl, err := s.templates.GetActiveByName(ctx, req.TemplateName, req.Channel)
		if err != nil {
			return nil, fmt.Errorf("%w: template %q for channel %s: %v",
				domain.ErrTemplateRender, req.TemplateName, req.Channel, err)
		}

		// Rendering supplies only the fields the caller left empty.
		rendered := template.Render(tpl, req.Context)
		if subject == "" {
			subject = rendered.Subject
		}
		if body == "" {
			body = rendered.Content
		}
		if htmlBody == "" {
			htmlBody = rendered.HTML
		}
	}

	log := &domain.MessageLog{
		ID:           uuid.NewString(),
		Channel:      req.Channel,
		Sender:       sender,
		Recipient:    strings.TrimSpace(req.Recipient),
		CC:           strings.Join(req.CC, ","),
		Subject:      subject,
		Body:         body,
		TemplateName: req.TemplateName,
		Status:       domain.StatusPending,
	}
	if len(req.Metadata) > 0 {
		log.Metadata = make(map[string]string, len(req.Metadata)+1)
		for k, v := range req.Metadata {
			log.Metadata[k] = v
		}
	}
	if htmlBody != "" {
		log.SetHTMLBody(htmlBody)
	}
	if createdBy := strings.TrimSpace(req.CreatedBy); createdBy != "" {
		log.CreatedBy = &createdBy
		log.UpdatedBy = &createdBy
	}

	if err := log.Validate(); err != nil {
		return nil, err
	}

	var schedule *domain.ScheduledMessage
	if req.ScheduledTime != nil {
		schedule = &domain.ScheduledMessage{
			ID:            uuid.NewString(),
			MessageLogID:  log.ID,
			ScheduledTime: req.ScheduledTime.UTC(),
			Recurring:     req.Recurring,
			Rule:          req.Rule,
		}
		if err := schedule.Validate(s.now().UTC()); err != nil {
			return nil, err
		}
	}

	if err := s.logs.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to persist message log: %w", err)
	}

	if schedule != nil {
		if err := s.schedules.Create(ctx, schedule); err != nil {
			if markErr := s.logs.MarkFailed(ctx, log.ID, fmt.Sprintf("schedule failed: %v", err)); markErr != nil {
				s.logger.Error("failed to mark message log as failed after schedule error",
					zap.String("messageLogId", log.ID),
					zap.Error(markErr),
				)
			}
			return nil, fmt.Errorf("failed to persist schedule: %w", err)
		}
		return log, nil
	}

	task := queue.SendTask{MessageLogID: log.ID, Channel: log.Channel}
	if err := s.publisher.Publish(ctx, queue.QueueName(log.Channel), task); err != nil {
		s.logger.Error("failed to publish send task",
			zap.String("messageLogId", log.ID),
			zap.String("channel", log.Channel.String()),
			zap.Error(err),
		)
		if markErr := s.logs.MarkFailed(ctx, log.ID, fmt.Sprintf("enqueue failed: %v", err)); markErr != nil {
			s.logger.Error("failed to mark message log as failed after publish error",
				zap.String("messageLogId", log.ID),
				zap.Error(markErr),
			)
			return nil, fmt.Errorf("failed to publish send task: %w (failed to mark as failed: %v)", err, markErr)
		}
		return nil, fmt.Errorf("failed to publish send task: %w", err)
	}

	return log, nil
}

// Cancel marks a not-yet-processed schedule as canceled.
func (s *DispatcherService) Cancel(ctx context.Context, messageLogID string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	schedule, err := s.schedules.GetByMessageLogID(ctx, messageLogID)
	if err != nil {
		return err
	}
	return s.schedules.Cancel(ctx, schedule.ID)
}

func (s *DispatcherService) resolveSender(ctx context.Context, req SendRequest) (string, error) {
	if sender := strings.TrimSpace(req.Sender); sender != "" {
		return sender, nil
	}
	if s.configs == nil {
		return "", fmt.Errorf("%w: no sender and no configuration repository", domain.ErrConfiguration)
	}

	switch req.Channel {
	case domain.ChannelEmail:
		cfg, err := s.configs.GetActiveEmail(ctx)
		if err != nil {
			return "", err
		}
		return cfg.FromEmail, nil
	case domain.ChannelSMS:
		cfg, err := s.configs.GetActiveSMS(ctx)
		if err != nil {
			return "", err
		}
		return cfg.PhoneNumber, nil
	case domain.ChannelWhatsApp:
		cfg, err := s.configs.GetActiveWhatsApp(ctx)
		if err != nil {
			return "", err
		}
		return cfg.WhatsAppNumber, nil
	}

	return "", fmt.Errorf("%w: invalid channel %q", domain.ErrValidation, req.Channel)
}

// failSilentlyDefault reads the configured default for callers that did not
// set the flag themselves. Only the email configuration carries one.
func (s *DispatcherService) failSilentlyDefault(ctx context.Context, channel domain.Channel) bool {
	if s.configs == nil || channel != domain.ChannelEmail {
		return false
	}
	cfg, err := s.configs.GetActiveEmail(ctx)
	if err != nil {
		return false
	}
	return cfg.FailSilently
}
