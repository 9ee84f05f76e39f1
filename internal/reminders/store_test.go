package reminders

import (
	"context"
	"errors"
	"sync"
)

var errStoreDown = errors.New("store down")

// MemoryStore implements Store for testing.
type MemoryStore struct {
	mu        sync.Mutex
	reminders map[string][]Reminder
	settings  map[string]Settings
	saves     int
	failSaves bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reminders: make(map[string][]Reminder),
		settings:  make(map[string]Settings),
	}
}

func (m *MemoryStore) GetReminders(ctx context.Context, scope string) ([]Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneReminders(m.reminders[scope]), nil
}

func (m *MemoryStore) SaveReminders(ctx context.Context, scope string, list []Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves {
		return errStoreDown
	}
	m.saves++
	m.reminders[scope] = cloneReminders(list)
	return nil
}

func (m *MemoryStore) GetReminderSettings(ctx context.Context, scope string) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[scope]; ok {
		return s, nil
	}
	return DefaultSettings(), nil
}

func (m *MemoryStore) SaveReminderSettings(ctx context.Context, scope string, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves {
		return errStoreDown
	}
	m.settings[scope] = s
	return nil
}

func (m *MemoryStore) stored(scope string) []Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneReminders(m.reminders[scope])
}

func (m *MemoryStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) setFailSaves(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaves = fail
}
