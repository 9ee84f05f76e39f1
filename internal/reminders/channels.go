package reminders

import (
	"context"
	"errors"

	"acadease/internal/desktop"
	"acadease/internal/sound"
	"github.com/rs/zerolog"
)

const (
	reminderTitle  = "AcadEase Reminder"
	emailSentTitle = "AcadEase Email Sent"
)

// AlertSink receives reminders to show as toasts.
type AlertSink interface {
	ShowAlert(r Reminder) bool
}

// SoundPlayer starts a named sound without waiting for it to finish.
type SoundPlayer interface {
	Play(ctx context.Context, name string) error
}

// PermissionGate exposes the OS notification permission.
type PermissionGate interface {
	State() desktop.Permission
	Request(ctx context.Context) bool
}

// ToastChannel adds the reminder to the active alerts. It has no setting
// and always runs.
type ToastChannel struct {
	sink AlertSink
}

func NewToastChannel(sink AlertSink) *ToastChannel {
	return &ToastChannel{sink: sink}
}

func (c *ToastChannel) Name() string { return "toast" }

func (c *ToastChannel) Attempt(_ context.Context, r Reminder, _ Settings) (Outcome, error) {
	if !c.sink.ShowAlert(r) {
		return OutcomeSkipped, ErrNotFound
	}
	return OutcomeDelivered, nil
}

// AudioChannel plays the configured sound when sound is enabled.
type AudioChannel struct {
	player SoundPlayer
}

func NewAudioChannel(player SoundPlayer) *AudioChannel {
	return &AudioChannel{player: player}
}

func (c *AudioChannel) Name() string { return "audio" }

func (c *AudioChannel) Attempt(ctx context.Context, _ Reminder, s Settings) (Outcome, error) {
	if !s.SoundEnabled || c.player == nil {
		return OutcomeSkipped, nil
	}
	if err := c.player.Play(ctx, string(s.SoundType)); err != nil {
		if errors.Is(err, sound.ErrNoOutput) {
			return OutcomeSkipped, err
		}
		return OutcomeFailed, err
	}
	return OutcomeDelivered, nil
}

// DesktopChannel shows an OS notification while permission is granted. An
// undecided permission triggers a request and skips this reminder.
type DesktopChannel struct {
	gate     PermissionGate
	notifier desktop.Notifier
}

func NewDesktopChannel(gate PermissionGate, notifier desktop.Notifier) *DesktopChannel {
	return &DesktopChannel{gate: gate, notifier: notifier}
}

func (c *DesktopChannel) Name() string { return "desktop" }

func (c *DesktopChannel) Attempt(ctx context.Context, r Reminder, _ Settings) (Outcome, error) {
	switch c.gate.State() {
	case desktop.PermissionGranted:
		if err := c.notifier.Show(ctx, reminderTitle, "Due: "+r.Text); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeDelivered, nil
	case desktop.PermissionDenied:
		return OutcomeSkipped, nil
	default:
		c.gate.Request(ctx)
		return OutcomeSkipped, nil
	}
}

// EmailChannel simulates an email by logging the send and confirming it
// with an OS notification.
type EmailChannel struct {
	gate     PermissionGate
	notifier desktop.Notifier
	logger   zerolog.Logger
}

func NewEmailChannel(gate PermissionGate, notifier desktop.Notifier, logger zerolog.Logger) *EmailChannel {
	return &EmailChannel{
		gate:     gate,
		notifier: notifier,
		logger:   logger.With().Str("component", "email").Logger(),
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Attempt(ctx context.Context, r Reminder, s Settings) (Outcome, error) {
	if !s.EmailConfigured() {
		return OutcomeSkipped, nil
	}

	c.logger.Info().
		Str("to", s.EmailAddress).
		Int64("reminder_id", r.ID).
		Str("text", r.Text).
		Msg("Simulated email send")

	if c.gate.State() != desktop.PermissionGranted {
		return OutcomeSkipped, nil
	}
	if err := c.notifier.Show(ctx, emailSentTitle, "Notification sent to "+s.EmailAddress); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeDelivered, nil
}
