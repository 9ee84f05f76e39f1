package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"acadease/internal/assistant"
	"acadease/internal/desktop"
	"acadease/internal/profile"
	"acadease/internal/reminders"
	"acadease/internal/timetable"
)

// Record key prefixes. Per-user records append "_<scope>".
const (
	KeyUser        = "acadease_user"
	KeyReminders   = "acadease_reminders"
	KeySettings    = "acadease_settings"
	KeyTimetable   = "acadease_timetable"
	KeyChatHistory = "acadease_chat_history"
	KeyPermission  = "acadease_notification_permission"
)

func scopedKey(prefix, scope string) string {
	return prefix + "_" + scope
}

// Repository maps logical records onto a KV store as JSON documents.
// Absent records read as empty values, never as errors.
type Repository struct {
	kv KV
}

func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// Ping reports whether the underlying store answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}

// load decodes key into dst. It reports false when the key is absent.
func (r *Repository) load(ctx context.Context, key string, dst any) (bool, error) {
	data, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.kv.Set(ctx, key, data)
}

func (r *Repository) GetReminders(ctx context.Context, scope string) ([]reminders.Reminder, error) {
	var out []reminders.Reminder
	if _, err := r.load(ctx, scopedKey(KeyReminders, scope), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []reminders.Reminder{}
	}
	return out, nil
}

func (r *Repository) SaveReminders(ctx context.Context, scope string, list []reminders.Reminder) error {
	if list == nil {
		list = []reminders.Reminder{}
	}
	return r.save(ctx, scopedKey(KeyReminders, scope), list)
}

// GetReminderSettings merges any stored fields over the defaults.
func (r *Repository) GetReminderSettings(ctx context.Context, scope string) (reminders.Settings, error) {
	settings := reminders.DefaultSettings()
	if _, err := r.load(ctx, scopedKey(KeySettings, scope), &settings); err != nil {
		return reminders.DefaultSettings(), err
	}
	return settings, nil
}

func (r *Repository) SaveReminderSettings(ctx context.Context, scope string, settings reminders.Settings) error {
	return r.save(ctx, scopedKey(KeySettings, scope), settings)
}

// GetUser returns the remembered user, or nil.
func (r *Repository) GetUser(ctx context.Context) (*profile.User, error) {
	var u profile.User
	found, err := r.load(ctx, KeyUser, &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) SaveUser(ctx context.Context, u profile.User) error {
	return r.save(ctx, KeyUser, u)
}

func (r *Repository) ClearUser(ctx context.Context) error {
	return r.kv.Delete(ctx, KeyUser)
}

func (r *Repository) GetTimetable(ctx context.Context) (timetable.Timetable, error) {
	out := timetable.Timetable{}
	if _, err := r.load(ctx, KeyTimetable, &out); err != nil {
		return timetable.Timetable{}, err
	}
	return out, nil
}

func (r *Repository) SaveTimetable(ctx context.Context, t timetable.Timetable) error {
	return r.save(ctx, KeyTimetable, t)
}

func (r *Repository) GetChatHistory(ctx context.Context, scope string) ([]assistant.Message, error) {
	var out []assistant.Message
	if _, err := r.load(ctx, scopedKey(KeyChatHistory, scope), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []assistant.Message{}
	}
	return out, nil
}

func (r *Repository) SaveChatHistory(ctx context.Context, scope string, history []assistant.Message) error {
	return r.save(ctx, scopedKey(KeyChatHistory, scope), history)
}

// GetPermission defaults to an undecided permission.
func (r *Repository) GetPermission(ctx context.Context) (desktop.Permission, error) {
	p := desktop.PermissionDefault
	if _, err := r.load(ctx, KeyPermission, &p); err != nil {
		return desktop.PermissionDefault, err
	}
	if !p.Valid() {
		return desktop.PermissionDefault, nil
	}
	return p, nil
}

func (r *Repository) SavePermission(ctx context.Context, p desktop.Permission) error {
	return r.save(ctx, KeyPermission, p)
}
