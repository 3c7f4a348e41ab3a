package domain

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the recurrence unit of a scheduled message.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

func ParseFrequencyFromString(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: invalid frequency %q", ErrValidation, s)
	}
	return f, nil
}

// RecurrenceRule describes how a recurring scheduled message repeats.
type RecurrenceRule struct {
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`
}

func (r RecurrenceRule) Validate() error {
	if !r.Frequency.IsValid() {
		return fmt.Errorf("%w: invalid frequency %q", ErrValidation, r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be a positive integer", ErrValidation)
	}
	return nil
}

// Next computes the occurrence after base. Month and year steps use
// calendar arithmetic, not a fixed number of days.
func (r RecurrenceRule) Next(base time.Time) (time.Time, bool) {
	if r.Validate() != nil {
		return time.Time{}, false
	}
	switch r.Frequency {
	case FrequencyDaily:
		return base.AddDate(0, 0, r.Interval), true
	case FrequencyWeekly:
		return base.AddDate(0, 0, 7*r.Interval), true
	case FrequencyMonthly:
		return base.AddDate(0, r.Interval, 0), true
	case FrequencyYearly:
		return base.AddDate(r.Interval, 0, 0), true
	}
	return time.Time{}, false
}

// ScheduledMessage is a future-dated or recurring wrapper around a PENDING
// message log. One log has at most one schedule row.
type ScheduledMessage struct {
	ID            string
	MessageLogID  string
	ScheduledTime time.Time
	Recurring     bool
	Rule          *RecurrenceRule
	Processed     bool
	Canceled      bool
	LastRun       *time.Time
	NextRun       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the creation invariants: a strictly-future scheduled time
// and, when recurring, a well-formed rule.
func (s *ScheduledMessage) Validate(now time.Time) error {
	if strings.TrimSpace(s.MessageLogID) == "" {
		return fmt.Errorf("%w: message log id is required", ErrValidation)
	}
	if !s.ScheduledTime.After(now) {
		return fmt.Errorf("%w: scheduled time must be in the future", ErrValidation)
	}
	if s.Recurring {
		if s.Rule == nil {
			return fmt.Errorf("%w: recurring schedule requires a recurrence rule", ErrValidation)
		}
		if err := s.Rule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ComputeNextRun derives the next occurrence from the last run (or the
// scheduled time on first pass). Returns false when the row is terminal.
func (s *ScheduledMessage) ComputeNextRun() (time.Time, bool) {
	if !s.Recurring || s.Rule == nil {
		return time.Time{}, false
	}
	base := s.ScheduledTime
	if s.LastRun != nil {
		base = *s.LastRun
	}
	return s.Rule.Next(base)
}
