package domain

import (
	"errors"
	"testing"
	"time"
)

func TestRecurrenceRuleNext(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.January, 31, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rule RecurrenceRule
		want time.Time
	}{
		{
			name: "daily",
			rule: RecurrenceRule{Frequency: FrequencyDaily, Interval: 1},
			want: time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "every third day",
			rule: RecurrenceRule{Frequency: FrequencyDaily, Interval: 3},
			want: time.Date(2026, time.February, 3, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "weekly",
			rule: RecurrenceRule{Frequency: FrequencyWeekly, Interval: 2},
			want: time.Date(2026, time.February, 14, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "monthly uses calendar arithmetic",
			rule: RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1},
			want: time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "yearly",
			rule: RecurrenceRule{Frequency: FrequencyYearly, Interval: 1},
			want: time.Date(2027, time.January, 31, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := tt.rule.Next(base)
			if !ok {
				t.Fatal("Next() returned not ok")
			}
			if !got.Equal(tt.want) {
				t.Fatalf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecurrenceRuleValidate(t *testing.T) {
	t.Parallel()

	if err := (RecurrenceRule{Frequency: FrequencyDaily, Interval: 1}).Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if err := (RecurrenceRule{Frequency: "hourly", Interval: 1}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("invalid frequency: error = %v, want ErrValidation", err)
	}
	if err := (RecurrenceRule{Frequency: FrequencyDaily, Interval: 0}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero interval: error = %v, want ErrValidation", err)
	}
}

func TestParseFrequencyFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseFrequencyFromString(" Weekly ")
	if err != nil {
		t.Fatalf("ParseFrequencyFromString() unexpected error = %v", err)
	}
	if got != FrequencyWeekly {
		t.Fatalf("ParseFrequencyFromString() = %s, want %s", got, FrequencyWeekly)
	}

	_, err = ParseFrequencyFromString("fortnightly")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseFrequencyFromString() error = %v, want ErrValidation", err)
	}
}

func TestScheduledMessageValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule ScheduledMessage
		wantErr  bool
	}{
		{
			name:     "future one-shot",
			schedule: ScheduledMessage{MessageLogID: "m1", ScheduledTime: now.Add(time.Hour)},
		},
		{
			name: "future recurring",
			schedule: ScheduledMessage{
				MessageLogID:  "m1",
				ScheduledTime: now.Add(time.Hour),
				Recurring:     true,
				Rule:          &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1},
			},
		},
		{
			name:     "missing message log id",
			schedule: ScheduledMessage{ScheduledTime: now.Add(time.Hour)},
			wantErr:  true,
		},
		{
			name:     "past time",
			schedule: ScheduledMessage{MessageLogID: "m1", ScheduledTime: now.Add(-time.Minute)},
			wantErr:  true,
		},
		{
			name:     "exactly now",
			schedule: ScheduledMessage{MessageLogID: "m1", ScheduledTime: now},
			wantErr:  true,
		},
		{
			name: "recurring without rule",
			schedule: ScheduledMessage{
				MessageLogID:  "m1",
				ScheduledTime: now.Add(time.Hour),
				Recurring:     true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.schedule.Validate(now)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("Validate() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestScheduledMessageComputeNextRun(t *testing.T) {
	t.Parallel()

	scheduled := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	schedule := ScheduledMessage{
		MessageLogID:  "m1",
		ScheduledTime: scheduled,
		Recurring:     true,
		Rule:          &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1},
	}

	next, ok := schedule.ComputeNextRun()
	if !ok {
		t.Fatal("ComputeNextRun() returned not ok")
	}
	if want := scheduled.AddDate(0, 0, 1); !next.Equal(want) {
		t.Fatalf("next run = %v, want %v", next, want)
	}

	lastRun := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	schedule.LastRun = &lastRun
	next, ok = schedule.ComputeNextRun()
	if !ok {
		t.Fatal("ComputeNextRun() with last run returned not ok")
	}
	if want := lastRun.AddDate(0, 0, 1); !next.Equal(want) {
		t.Fatalf("next run = %v, want %v", next, want)
	}

	oneShot := ScheduledMessage{MessageLogID: "m1", ScheduledTime: scheduled}
	if _, ok := oneShot.ComputeNextRun(); ok {
		t.Fatal("one-shot schedule should have no next run")
	}
}
