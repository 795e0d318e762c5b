package pomostudy

import (
	"errors"
	"fmt"
	"time"
)

const (
	MaxIntervalMinutes             = 240
	MaxSessionsBeforeLongBreak     = 20
	DefaultWorkMinutes             = 25
	DefaultShortBreakMinutes       = 5
	DefaultLongBreakMinutes        = 15
	DefaultSessionsBeforeLongBreak = 4
)

var ErrInvalidSettings = errors.New("invalid settings")

type Settings struct {
	WorkMinutes             int  `yaml:"work_minutes"`
	ShortBreakMinutes       int  `yaml:"short_break_minutes"`
	LongBreakMinutes        int  `yaml:"long_break_minutes"`
	SessionsBeforeLongBreak int  `yaml:"sessions_before_long_break"`
	Notifications           bool `yaml:"notifications"`
}

func DefaultSettings() Settings {
	return Settings{
		WorkMinutes:             DefaultWorkMinutes,
		ShortBreakMinutes:       DefaultShortBreakMinutes,
		LongBreakMinutes:        DefaultLongBreakMinutes,
		SessionsBeforeLongBreak: DefaultSessionsBeforeLongBreak,
		Notifications:           true,
	}
}

// Validate reports the first out-of-range field wrapped in ErrInvalidSettings.
func (s Settings) Validate() error {
	minutes := []struct {
		name string
		val  int
	}{
		{"work_minutes", s.WorkMinutes},
		{"short_break_minutes", s.ShortBreakMinutes},
		{"long_break_minutes", s.LongBreakMinutes},
	}
	for _, m := range minutes {
		if m.val <= 0 || m.val > MaxIntervalMinutes {
			return fmt.Errorf("%w: %s must be between 1 and %d, got %d", ErrInvalidSettings, m.name, MaxIntervalMinutes, m.val)
		}
	}
	if s.SessionsBeforeLongBreak <= 0 || s.SessionsBeforeLongBreak > MaxSessionsBeforeLongBreak {
		return fmt.Errorf("%w: sessions_before_long_break must be between 1 and %d, got %d",
			ErrInvalidSettings, MaxSessionsBeforeLongBreak, s.SessionsBeforeLongBreak)
	}
	return nil
}

func (s Settings) Minutes(t IntervalType) int {
	switch t {
	case WorkInterval:
		return s.WorkMinutes
	case ShortBreakInterval:
		return s.ShortBreakMinutes
	case LongBreakInterval:
		return s.LongBreakMinutes
	default:
		return 0
	}
}

func (s Settings) Duration(t IntervalType) time.Duration {
	return time.Duration(s.Minutes(t)) * time.Minute
}

// Seconds is the countdown length for t; never negative.
func (s Settings) Seconds(t IntervalType) int {
	return max(s.Minutes(t)*60, 0)
}
