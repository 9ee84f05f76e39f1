package reminders

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"acadease/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultSnooze is used when Snooze is given no duration.
const DefaultSnooze = time.Hour

// Fired is a reminder selected by a tick, in its post-fire state.
type Fired struct {
	Reminder Reminder
	Reason   FireReason
}

// Engine owns one user's reminders, settings and active alerts. All
// operations are serialised by a single lock; the in-memory state is the
// source of truth and every mutation is written through to the Store.
type Engine struct {
	store  Store
	scope  string
	logger zerolog.Logger

	mu        sync.Mutex
	reminders []Reminder
	settings  Settings
	alerts    alertSet
	lastID    int64
}

func NewEngine(store Store, scope string, logger zerolog.Logger) *Engine {
	return &Engine{
		store:     store,
		scope:     scope,
		logger:    logger.With().Str("component", "reminder_engine").Str("scope", scope).Logger(),
		reminders: []Reminder{},
		settings:  DefaultSettings(),
	}
}

// Scope is the user scope the engine persists under.
func (e *Engine) Scope() string {
	return e.scope
}

// Load replaces the in-memory state with the stored reminders and settings.
// Active alerts are cleared.
func (e *Engine) Load(ctx context.Context) error {
	list, err := e.store.GetReminders(ctx, e.scope)
	if err != nil {
		return fmt.Errorf("load reminders: %w", err)
	}
	settings, err := e.store.GetReminderSettings(ctx, e.scope)
	if err != nil {
		return fmt.Errorf("load reminder settings: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.reminders = cloneReminders(list)
	e.settings = settings
	e.alerts = alertSet{}
	e.lastID = 0
	for _, r := range e.reminders {
		if r.ID > e.lastID {
			e.lastID = r.ID
		}
	}
	metrics.SetActiveAlerts(0)
	return nil
}

// Tick fires every reminder that is due at now. Fired reminders are marked
// notified and their snooze is cleared before being returned, so a repeated
// tick with no intervening mutation fires nothing. When the write-through
// fails the fired batch is still returned together with the error.
func (e *Engine) Tick(ctx context.Context, now time.Time) ([]Fired, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var fired []Fired
	next := make([]Reminder, len(e.reminders))
	for i, r := range e.reminders {
		reason := Evaluate(now, r)
		if reason == ReasonNone {
			next[i] = r
			continue
		}
		updated := markFired(r)
		next[i] = updated
		fired = append(fired, Fired{Reminder: updated.clone(), Reason: reason})
	}

	if len(fired) == 0 {
		return nil, nil
	}

	e.reminders = next
	for _, f := range fired {
		metrics.IncReminderFired(string(f.Reason))
	}
	return fired, e.persistLocked(ctx)
}

// Add creates a reminder with a fresh id derived from now.
func (e *Engine) Add(ctx context.Context, now time.Time, text, dueDate string) (Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reminder{}, fmt.Errorf("%w: text is required", ErrInvalidReminder)
	}
	dueDate = strings.TrimSpace(dueDate)
	if _, err := time.Parse(DateLayout, dueDate); err != nil {
		return Reminder{}, fmt.Errorf("%w: due date %q is not YYYY-MM-DD", ErrInvalidReminder, dueDate)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := now.UnixMilli()
	if id <= e.lastID {
		id = e.lastID + 1
	}
	e.lastID = id

	r := Reminder{ID: id, Text: text, DueDate: dueDate}
	next := make([]Reminder, 0, len(e.reminders)+1)
	next = append(next, e.reminders...)
	e.reminders = append(next, r)

	return r, e.persistLocked(ctx)
}

// Delete removes the reminder and any toast it shows.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}

	next := make([]Reminder, 0, len(e.reminders)-1)
	next = append(next, e.reminders[:idx]...)
	e.reminders = append(next, e.reminders[idx+1:]...)

	e.removeAlertLocked(id)
	return e.persistLocked(ctx)
}

// Snooze defers the reminder until now+d and hides its toast. A
// non-positive d means DefaultSnooze.
func (e *Engine) Snooze(ctx context.Context, now time.Time, id int64, d time.Duration) (Reminder, error) {
	if d <= 0 {
		d = DefaultSnooze
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexLocked(id)
	if idx < 0 {
		return Reminder{}, ErrNotFound
	}

	until := now.Add(d).UnixMilli()
	next := cloneReminders(e.reminders)
	next[idx].SnoozedUntil = &until
	e.reminders = next

	e.removeAlertLocked(id)
	return next[idx].clone(), e.persistLocked(ctx)
}

// Dismiss hides the toast only. It reports whether a toast was shown.
func (e *Engine) Dismiss(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeAlertLocked(id)
}

// ShowAlert adds r to the active alerts if it still exists.
func (e *Engine) ShowAlert(r Reminder) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexLocked(r.ID) < 0 {
		return false
	}
	e.alerts.add(r)
	metrics.SetActiveAlerts(e.alerts.len())
	return true
}

func (e *Engine) Reminders() []Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneReminders(e.reminders)
}

func (e *Engine) Alerts() []Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alerts.list()
}

func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings validates and persists new settings immediately.
func (e *Engine) UpdateSettings(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()

	if err := e.store.SaveReminderSettings(ctx, e.scope, s); err != nil {
		metrics.IncPersistFailure("settings")
		e.logger.Error().Err(err).Msg("Failed to save reminder settings")
		return fmt.Errorf("save reminder settings: %w", err)
	}
	return nil
}

func (e *Engine) indexLocked(id int64) int {
	for i := range e.reminders {
		if e.reminders[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) removeAlertLocked(id int64) bool {
	removed := e.alerts.remove(id)
	if removed {
		metrics.SetActiveAlerts(e.alerts.len())
	}
	return removed
}

func (e *Engine) persistLocked(ctx context.Context) error {
	if err := e.store.SaveReminders(ctx, e.scope, cloneReminders(e.reminders)); err != nil {
		metrics.IncPersistFailure("reminders")
		e.logger.Error().Err(err).Int("count", len(e.reminders)).Msg("Failed to save reminders")
		return fmt.Errorf("save reminders: %w", err)
	}
	return nil
}
