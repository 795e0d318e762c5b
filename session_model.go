package pomostudy

import (
	"fmt"
	"strings"
	"time"
)

type IntervalType uint8

const (
	_ IntervalType = iota
	WorkInterval
	ShortBreakInterval
	LongBreakInterval
)

func (i IntervalType) String() string {
	switch i {
	case WorkInterval:
		return "Work"
	case ShortBreakInterval:
		return "Short Break"
	case LongBreakInterval:
		return "Long Break"
	default:
		return fmt.Sprintf("IntervalType(%d)", uint8(i))
	}
}

// Key is the stable identifier used in commands, config and storage.
func (i IntervalType) Key() string {
	switch i {
	case WorkInterval:
		return "work"
	case ShortBreakInterval:
		return "short_break"
	case LongBreakInterval:
		return "long_break"
	default:
		return ""
	}
}

func (i IntervalType) Valid() bool {
	return i >= WorkInterval && i <= LongBreakInterval
}

func (i IntervalType) IsBreak() bool {
	return i == ShortBreakInterval || i == LongBreakInterval
}

// ParseIntervalType accepts both underscore and dash spellings ("short_break", "short-break").
func ParseIntervalType(s string) (IntervalType, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "work", "pomodoro", "focus":
		return WorkInterval, nil
	case "short_break", "short":
		return ShortBreakInterval, nil
	case "long_break", "long":
		return LongBreakInterval, nil
	default:
		return 0, fmt.Errorf("unknown interval type %q", s)
	}
}

type (
	SessionID string
	OwnerID   string
)

// SessionRecord describes one started interval. It is open until EndTime is
// set together with exactly one of Completed or Interrupted.
type SessionRecord struct {
	ID      SessionID
	OwnerID OwnerID
	TaskID  string

	StartTime              time.Time
	EndTime                time.Time
	IntervalType           IntervalType
	PlannedDurationMinutes int
	Completed              bool
	Interrupted            bool
}

func (r SessionRecord) IsFinalized() bool {
	return r.ID != "" && !r.EndTime.IsZero() && r.Completed != r.Interrupted
}

// Elapsed is the wall-clock time between start and end, pauses included.
func (r SessionRecord) Elapsed() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

type ExistingSessionRecord struct {
	SessionRecord
	RecordedAt time.Time
}
