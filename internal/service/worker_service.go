package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
	"github.com/gestionis/notify-core/internal/observability"
	"github.com/gestionis/notify-core/internal/provider"
	"github.com/gestionis/notify-core/internal/queue"
	"github.com/gestionis/notify-core/internal/ratelimit"
	"github.com/gestionis/notify-core/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minWorkerConcurrency = 1
	defaultMaxRetries    = 3
	baseRetryDelay       = 60 * time.Second
	maxRetryDelay        = 15 * time.Minute
	maxRetryJitterMillis = 250
)

type WorkerService struct {
	logs        repository.MessageLogRepository
	configs     repository.ConfigurationRepository
	consumer    queue.Consumer
	registry    *provider.Registry
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	maxRetries  int
	now         func() time.Time
	randIntn    func(n int) int
}

func NewWorkerService(
	logs repository.MessageLogRepository,
	configs repository.ConfigurationRepository,
	consumer queue.Consumer,
	registry *provider.Registry,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	maxRetries int,
	logger *zap.Logger,
) (*WorkerService, error) {
	if logs == nil {
		return nil, fmt.Errorf("message log repository is required")
	}
	if configs == nil {
		return nil, fmt.Errorf("configuration repository is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		logs:        logs,
		configs:     configs,
		consumer:    consumer,
		registry:    registry,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		maxRetries:  maxRetries,
		now:         time.Now,
		randIntn:    rand.Intn,
	}, nil
}

// Start consumes channel queues and processes send tasks until context cancellation.
func (s *WorkerService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			err := s.consumer.Consume(groupCtx, queueName, s.processTask)
			if err != nil {
				s.logger.Error("worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

func (s *WorkerService) processTask(ctx context.Context, task queue.SendTask) error {
	ctx = observability.WithCorrelationID(ctx, task.MessageLogID)
	logger := observability.WithContextLogger(s.logger, ctx)

	log, err := s.logs.ClaimForSend(ctx, task.MessageLogID, s.maxRetries)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("message log not found during claim, skipping")
			return nil
		}
		return fmt.Errorf("failed to claim message log for send: %w", err)
	}

	// Nil means already sent, canceled or out of retry budget; ack and skip.
	if log == nil {
		return nil
	}

	channelName := strings.ToLower(log.Channel.String())
	if s.metrics != nil {
		s.metrics.IncWorkerInFlight(channelName)
		defer s.metrics.DecWorkerInFlight(channelName)
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx, channelName); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	attemptNumber := log.Retries + 1
	sendStart := s.now()
	result, providerName, sendErr := s.dispatch(ctx, log)
	if s.metrics != nil {
		s.metrics.ObserveSendDuration(channelName, s.now().Sub(sendStart))
	}

	if sendErr == nil {
		messageID := ""
		if result != nil {
			messageID = strings.TrimSpace(result.MessageID)
		}
		if err := s.logs.MarkSent(ctx, log.ID, providerName, messageID, s.now().UTC()); err != nil {
			return fmt.Errorf("failed to mark message log as sent: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncMessageSent(channelName)
		}
		return nil
	}

	errorMessage := fmt.Sprintf("attempt %d: %v", attemptNumber, sendErr)

	if errors.Is(sendErr, domain.ErrConfiguration) {
		if err := s.logs.MarkFailed(ctx, log.ID, errorMessage); err != nil {
			return fmt.Errorf("failed to mark message log as failed: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncMessageFailed(channelName, "configuration_error")
		}
		return nil
	}

	if log.Retries >= s.maxRetries {
		if err := s.logs.MarkFailed(ctx, log.ID, errorMessage); err != nil {
			return fmt.Errorf("failed to mark message log as failed: %w", err)
		}
		if s.metrics != nil {
			reason := "permanent_error"
			if provider.IsTransient(sendErr) {
				reason = "retry_exhausted"
			}
			s.metrics.IncMessageFailed(channelName, reason)
		}
		return nil
	}

	nextRetryAt := s.now().UTC().Add(s.computeRetryDelay(attemptNumber))
	if err := s.logs.MarkFailedWithRetry(ctx, log.ID, errorMessage, nextRetryAt); err != nil {
		return fmt.Errorf("failed to mark message log for retry: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IncRetryScheduled(channelName)
	}

	return nil
}

func (s *WorkerService) dispatch(ctx context.Context, log *domain.MessageLog) (*provider.SendResult, string, error) {
	switch log.Channel {
	case domain.ChannelEmail:
		cfg, err := s.configs.GetActiveEmail(ctx)
		if err != nil {
			return nil, "", err
		}
		sender, err := s.registry.Email(cfg.Backend)
		if err != nil {
			return nil, "", err
		}

		sendCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()

		result, err := sender.Send(sendCtx, *cfg, *log)
		return result, cfg.Backend.String(), err

	case domain.ChannelSMS:
		cfg, err := s.configs.GetActiveSMS(ctx)
		if err != nil {
			return nil, "", err
		}
		sender, err := s.registry.SMS(cfg.Backend)
		if err != nil {
			return nil, "", err
		}

		sendCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()

		result, err := sender.Send(sendCtx, *cfg, *log)
		return result, cfg.Backend.String(), err

	case domain.ChannelWhatsApp:
		cfg, err := s.configs.GetActiveWhatsApp(ctx)
		if err != nil {
			return nil, "", err
		}
		sender, err := s.registry.WhatsApp(cfg.Backend)
		if err != nil {
			return nil, "", err
		}

		sendCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()

		result, err := sender.Send(sendCtx, *cfg, *log)
		return result, cfg.Backend.String(), err
	}

	return nil, "", fmt.Errorf("%w: invalid channel %q", domain.ErrValidation, log.Channel)
}

func (s *WorkerService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *WorkerService) computeRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	delay := baseRetryDelay
	for i := 1; i < attemptNumber; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}

	jitterMillis := 0
	if s.randIntn != nil && maxRetryJitterMillis > 0 {
		jitterMillis = s.randIntn(maxRetryJitterMillis + 1)
	}

	return delay + time.Duration(jitterMillis)*time.Millisecond
}
