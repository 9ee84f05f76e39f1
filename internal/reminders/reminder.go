package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of a reminder due date.
const DateLayout = "2006-01-02"

var (
	ErrNotFound        = errors.New("reminder not found")
	ErrInvalidReminder = errors.New("invalid reminder")
	ErrInvalidSettings = errors.New("invalid reminder settings")
)

// SoundType selects one of the fixed alert tones.
type SoundType string

const (
	SoundBeep  SoundType = "beep"
	SoundChime SoundType = "chime"
	SoundAlert SoundType = "alert"
)

func (t SoundType) Valid() bool {
	switch t {
	case SoundBeep, SoundChime, SoundAlert:
		return true
	default:
		return false
	}
}

// Reminder is a dated to-do item. A reminder is pending (not notified, no
// snooze), fired (notified, no snooze) or snoozed (SnoozedUntil set).
type Reminder struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	DueDate string `json:"dueDate"`
	// Notified is set once the due-date alert has fired.
	Notified bool `json:"notified,omitempty"`
	// SnoozedUntil is an absolute unix timestamp in milliseconds.
	SnoozedUntil *int64 `json:"snoozedUntil,omitempty"`
}

// SnoozeDeadline returns the snooze expiry, if a snooze is pending.
func (r Reminder) SnoozeDeadline() (time.Time, bool) {
	if r.SnoozedUntil == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*r.SnoozedUntil), true
}

// Due parses the due date as a UTC calendar day.
func (r Reminder) Due() (time.Time, error) {
	return time.ParseInLocation(DateLayout, r.DueDate, time.UTC)
}

// Settings are the per-user notification preferences.
type Settings struct {
	SoundEnabled bool      `json:"soundEnabled"`
	SoundType    SoundType `json:"soundType"`
	EmailEnabled bool      `json:"emailEnabled"`
	EmailAddress string    `json:"emailAddress"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		SoundEnabled: true,
		SoundType:    SoundBeep,
		EmailEnabled: false,
		EmailAddress: "",
	}
}

// Validate checks the sound type. The email address is intentionally not
// validated.
func (s Settings) Validate() error {
	if !s.SoundType.Valid() {
		return fmt.Errorf("%w: unknown sound type %q", ErrInvalidSettings, s.SoundType)
	}
	return nil
}

// EmailConfigured reports whether the simulated email channel should run.
func (s Settings) EmailConfigured() bool {
	return s.EmailEnabled && strings.TrimSpace(s.EmailAddress) != ""
}

// Store persists reminders and settings under a user scope.
type Store interface {
	// GetReminders returns an empty slice when nothing is stored.
	GetReminders(ctx context.Context, scope string) ([]Reminder, error)

	SaveReminders(ctx context.Context, scope string, reminders []Reminder) error

	// GetReminderSettings returns DefaultSettings merged with any stored fields.
	GetReminderSettings(ctx context.Context, scope string) (Settings, error)

	SaveReminderSettings(ctx context.Context, scope string, settings Settings) error
}

func cloneReminders(in []Reminder) []Reminder {
	out := make([]Reminder, len(in))
	for i, r := range in {
		out[i] = r.clone()
	}
	return out
}

func (r Reminder) clone() Reminder {
	if r.SnoozedUntil != nil {
		v := *r.SnoozedUntil
		r.SnoozedUntil = &v
	}
	return r
}
