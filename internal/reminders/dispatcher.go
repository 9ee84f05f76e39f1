package reminders

import (
	"context"
	"fmt"

	"acadease/internal/metrics"
	"github.com/rs/zerolog"
)

// Outcome is the result of one channel attempt.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Channel is one independent notification path.
type Channel interface {
	Name() string
	Attempt(ctx context.Context, r Reminder, s Settings) (Outcome, error)
}

// Result records one channel attempt for one reminder.
type Result struct {
	ReminderID int64
	Channel    string
	Outcome    Outcome
	Err        error
}

// Dispatcher fans fired reminders out to every channel. A failing or
// panicking channel never stops the others.
type Dispatcher struct {
	channels []Channel
	logger   zerolog.Logger
}

func NewDispatcher(logger zerolog.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch attempts every channel for every reminder, in order.
func (d *Dispatcher) Dispatch(ctx context.Context, fired []Reminder, s Settings) []Result {
	results := make([]Result, 0, len(fired)*len(d.channels))
	for _, r := range fired {
		for _, ch := range d.channels {
			outcome, err := d.attempt(ctx, ch, r, s)
			results = append(results, Result{ReminderID: r.ID, Channel: ch.Name(), Outcome: outcome, Err: err})
			metrics.IncChannelOutcome(ch.Name(), string(outcome))

			switch {
			case outcome == OutcomeFailed:
				d.logger.Warn().Err(err).Int64("reminder_id", r.ID).Str("channel", ch.Name()).Msg("Notification channel failed")
			case err != nil:
				d.logger.Debug().Err(err).Int64("reminder_id", r.ID).Str("channel", ch.Name()).Msg("Notification channel skipped")
			}
		}
	}
	return results
}

func (d *Dispatcher) attempt(ctx context.Context, ch Channel, r Reminder, s Settings) (outcome Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			outcome = OutcomeFailed
			err = fmt.Errorf("channel %s panicked: %v", ch.Name(), p)
		}
	}()

	outcome, err = ch.Attempt(ctx, r, s)
	if outcome == "" {
		outcome = OutcomeFailed
		if err == nil {
			outcome = OutcomeDelivered
		}
	}
	return outcome, err
}
