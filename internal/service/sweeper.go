package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
	"github.com/gestionis/notify-core/internal/observability"
	"github.com/gestionis/notify-core/internal/queue"
	"github.com/gestionis/notify-core/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSweepInterval = time.Minute
	defaultSweepLimit    = 100
)

// Sweeper periodically claims due scheduled messages and enqueues the ones
// whose log is still PENDING. Recurring rows are reset to their next
// occurrence after each pickup.
type Sweeper struct {
	schedules repository.ScheduleRepository
	logs      repository.MessageLogRepository
	publisher queue.Publisher
	logger    *zap.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	limit     int
	now       func() time.Time
}

func NewSweeper(
	schedules repository.ScheduleRepository,
	logs repository.MessageLogRepository,
	publisher queue.Publisher,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*Sweeper, error) {
	if schedules == nil {
		return nil, fmt.Errorf("schedule repository is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("message log repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		schedules: schedules,
		logs:      logs,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		limit:     limit,
		now:       time.Now,
	}, nil
}

func (s *Sweeper) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *Sweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("sweeper initial pass failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("sweeper pass failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	now := s.now().UTC()

	due, err := s.schedules.ClaimDue(ctx, now, s.limit)
	if err != nil {
		return fmt.Errorf("failed to claim due scheduled messages: %w", err)
	}
	if s.metrics != nil && len(due) > 0 {
		s.metrics.AddSweepClaimed(len(due))
	}

	for i := range due {
		schedule := due[i]
		s.processDue(ctx, schedule)
	}

	return nil
}

func (s *Sweeper) processDue(ctx context.Context, schedule domain.ScheduledMessage) {
	log, err := s.logs.GetByID(ctx, schedule.MessageLogID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("scheduled message log missing, skipping",
				zap.String("scheduleId", schedule.ID),
				zap.String("messageLogId", schedule.MessageLogID),
			)
		} else {
			s.logger.Error("failed to load scheduled message log",
				zap.String("scheduleId", schedule.ID),
				zap.Error(err),
			)
		}
	} else if log.Status == domain.StatusPending {
		task := queue.SendTask{MessageLogID: log.ID, Channel: log.Channel}
		queueName := queue.QueueName(log.Channel)

		if err := s.publisher.Publish(ctx, queueName, task); err != nil {
			s.logger.Error("failed to enqueue scheduled send task",
				zap.String("messageLogId", log.ID),
				zap.String("queue", queueName),
				zap.Error(err),
			)
		}
	} else {
		// Retry budget lives in the send task; a non-PENDING log is not resurrected.
		s.logger.Info("scheduled message log no longer pending, not enqueueing",
			zap.String("messageLogId", schedule.MessageLogID),
			zap.String("status", log.Status.String()),
		)
	}

	if !schedule.Recurring {
		return
	}

	lastRun := s.now().UTC()
	schedule.LastRun = &lastRun

	nextRun, ok := schedule.ComputeNextRun()
	if !ok {
		return
	}

	if err := s.schedules.Reschedule(ctx, schedule.ID, nextRun); err != nil {
		s.logger.Error("failed to reschedule recurring message",
			zap.String("scheduleId", schedule.ID),
			zap.Time("nextRun", nextRun),
			zap.Error(err),
		)
	}
}
