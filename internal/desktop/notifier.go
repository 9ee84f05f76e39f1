package desktop

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

var ErrUnavailable = errors.New("desktop notifications unavailable")

// Notifier shows an OS-level notification. Show is only valid while
// permission is granted.
type Notifier interface {
	Show(ctx context.Context, title, body string) error
}

// Backend is a notifier that can also answer permission requests.
type Backend interface {
	Notifier
	Requester
}

// LogNotifier writes notifications to the log. It always grants
// permission.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Show(_ context.Context, title, body string) error {
	n.logger.Info().Str("title", title).Str("body", body).Msg("Notification")
	return nil
}

func (n *LogNotifier) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

// Disabled denies every permission request.
type Disabled struct{}

func (Disabled) Show(context.Context, string, string) error {
	return ErrUnavailable
}

func (Disabled) RequestPermission(context.Context) (Permission, error) {
	return PermissionDenied, nil
}
