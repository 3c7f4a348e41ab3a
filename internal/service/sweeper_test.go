package service

import (
	"context"
	"testing"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
	"github.com/gestionis/notify-core/internal/queue"
	"go.uber.org/zap"
)

func newTestSweeper(
	t *testing.T,
	schedules *fakeScheduleRepo,
	logs *fakeMessageLogRepo,
	publisher *fakePublisher,
) *Sweeper {
	t.Helper()

	sweeper, err := NewSweeper(schedules, logs, publisher, time.Minute, 100, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}
	sweeper.now = func() time.Time { return time.Unix(1_700_000_000, 0).UTC() }
	return sweeper
}

func TestSweeperEnqueuesPendingDueMessages(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	var published []queue.SendTask

	schedules := &fakeScheduleRepo{
		claimDueFn: func(ctx context.Context, claimNow time.Time, limit int) ([]domain.ScheduledMessage, error) {
			if !claimNow.Equal(now) {
				t.Fatalf("claim now = %v, want %v", claimNow, now)
			}
			return []domain.ScheduledMessage{
				{ID: "s1", MessageLogID: "m1", ScheduledTime: now.Add(-time.Minute)},
			}, nil
		},
	}
	logs := &fakeMessageLogRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.MessageLog, error) {
			return &domain.MessageLog{ID: id, Channel: domain.ChannelWhatsApp, Status: domain.StatusPending}, nil
		},
	}
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, task queue.SendTask) error {
			if queueName != "whatsapp" {
				t.Fatalf("queue = %q, want whatsapp", queueName)
			}
			published = append(published, task)
			return nil
		},
	}

	sweeper := newTestSweeper(t, schedules, logs, publisher)
	if err := sweeper.sweep(context.Background()); err != nil {
		t.Fatalf("sweep() error = %v", err)
	}

	if len(published) != 1 || published[0].MessageLogID != "m1" {
		t.Fatalf("published = %+v, want one task for m1", published)
	}
}

func TestSweeperSkipsNonPendingLogs(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	publishCalled := false

	schedules := &fakeScheduleRepo{
		claimDueFn: func(ctx context.Context, claimNow time.Time, limit int) ([]domain.ScheduledMessage, error) {
			return []domain.ScheduledMessage{
				{ID: "s1", MessageLogID: "m1", ScheduledTime: now.Add(-time.Minute)},
			}, nil
		},
	}
	logs := &fakeMessageLogRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.MessageLog, error) {
			return &domain.MessageLog{ID: id, Channel: domain.ChannelEmail, Status: domain.StatusSent}, nil
		},
	}
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, task queue.SendTask) error {
			publishCalled = true
			return nil
		},
	}

	sweeper := newTestSweeper(t, schedules, logs, publisher)
	if err := sweeper.sweep(context.Background()); err != nil {
		t.Fatalf("sweep() error = %v", err)
	}

	if publishCalled {
		t.Fatal("already-sent log must not be re-enqueued")
	}
}

func TestSweeperReschedulesRecurring(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	var rescheduledID string
	var rescheduledNext time.Time

	schedules := &fakeScheduleRepo{
		claimDueFn: func(ctx context.Context, claimNow time.Time, limit int) ([]domain.ScheduledMessage, error) {
			return []domain.ScheduledMessage{
				{
					ID:            "s1",
					MessageLogID:  "m1",
					ScheduledTime: now.Add(-time.Minute),
					Recurring:     true,
					Rule:          &domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 2},
				},
			}, nil
		},
		rescheduleFn: func(ctx context.Context, id string, nextRun time.Time) error {
			rescheduledID = id
			rescheduledNext = nextRun
			return nil
		},
	}
	logs := &fakeMessageLogRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.MessageLog, error) {
			return &domain.MessageLog{ID: id, Channel: domain.ChannelSMS, Status: domain.StatusPending}, nil
		},
	}

	sweeper := newTestSweeper(t, schedules, logs, &fakePublisher{})
	if err := sweeper.sweep(context.Background()); err != nil {
		t.Fatalf("sweep() error = %v", err)
	}

	if rescheduledID != "s1" {
		t.Fatalf("rescheduled id = %q, want s1", rescheduledID)
	}
	want := now.AddDate(0, 0, 2)
	if !rescheduledNext.Equal(want) {
		t.Fatalf("next run = %v, want %v", rescheduledNext, want)
	}
}

func TestSweeperDoesNotRescheduleOneShot(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	rescheduleCalled := false

	schedules := &fakeScheduleRepo{
		claimDueFn: func(ctx context.Context, claimNow time.Time, limit int) ([]domain.ScheduledMessage, error) {
			return []domain.ScheduledMessage{
				{ID: "s1", MessageLogID: "m1", ScheduledTime: now.Add(-time.Minute)},
			}, nil
		},
		rescheduleFn: func(ctx context.Context, id string, nextRun time.Time) error {
			rescheduleCalled = true
			return nil
		},
	}
	logs := &fakeMessageLogRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.MessageLog, error) {
			return &domain.MessageLog{ID: id, Channel: domain.ChannelEmail, Status: domain.StatusPending}, nil
		},
	}

	sweeper := newTestSweeper(t, schedules, logs, &fakePublisher{})
	if err := sweeper.sweep(context.Background()); err != nil {
		t.Fatalf("sweep() error = %v", err)
	}

	if rescheduleCalled {
		t.Fatal("one-shot schedule must not be rescheduled")
	}
}
