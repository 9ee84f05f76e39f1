package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"acadease/internal/desktop"
	"acadease/internal/profile"
	"acadease/internal/reminders"
	"acadease/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the next GetReminders calls.
type flakyStore struct {
	*storage.Repository

	mu       sync.Mutex
	failures int
}

func (s *flakyStore) failReads(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

func (s *flakyStore) GetReminders(ctx context.Context, scope string) ([]reminders.Reminder, error) {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return nil, errors.New("database is locked")
	}
	s.mu.Unlock()
	return s.Repository.GetReminders(ctx, scope)
}

func newTestManager(t *testing.T, now time.Time) (*Manager, *storage.Repository) {
	m, store := newFlakyManager(t, now)
	return m, store.Repository
}

func newFlakyManager(t *testing.T, now time.Time) (*Manager, *flakyStore) {
	t.Helper()
	kv, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	store := &flakyStore{Repository: storage.NewRepository(kv)}
	m := NewManager(Options{
		Store:    store,
		Gate:     desktop.NewGate(desktop.PermissionDenied, nil, nil, zerolog.Nop()),
		Notifier: desktop.Disabled{},
		Config:   reminders.Config{CheckInterval: time.Hour},
		Clock:    func() time.Time { return now },
		Logger:   zerolog.Nop(),
	})
	t.Cleanup(m.Close)
	return m, store
}

func TestLoginStartsService(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m, repo := newTestManager(t, now)
	ctx := context.Background()

	scope := profile.User{Name: "Asha", Branch: "Computer Science", Year: "1st Year", Semester: "1st Sem", Role: profile.RoleStudent}.Scope()
	require.NoError(t, repo.SaveReminders(ctx, scope, []reminders.Reminder{{ID: 1, Text: "Essay", DueDate: "2024-03-01"}}))

	_, _, err := m.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	u, err := m.LoginStudent(ctx, "Asha", "Computer Science", "1st Year", "1st Sem")
	require.NoError(t, err)

	cur, svc, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, u, cur)

	assert.Eventually(t, func() bool {
		return len(svc.Engine().Alerts()) == 1
	}, time.Second, 10*time.Millisecond, "immediate tick on start")

	stored, err := repo.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, u, *stored)
}

func TestLoginValidation(t *testing.T) {
	m, _ := newTestManager(t, time.Now())
	ctx := context.Background()

	_, err := m.LoginStudent(ctx, " ", "Computer Science", "1st Year", "1st Sem")
	assert.ErrorIs(t, err, profile.ErrNameRequired)

	_, err = m.LoginAdmin(ctx, "admin", "nope")
	assert.ErrorIs(t, err, profile.ErrInvalidCredentials)

	_, _, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLogoutAndResume(t *testing.T) {
	m, repo := newTestManager(t, time.Now())
	ctx := context.Background()

	_, err := m.LoginAdmin(ctx, "Admin", "admin123")
	require.NoError(t, err)

	m.Close()
	_, _, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	resumed, err := m.Resume(ctx)
	require.NoError(t, err)
	assert.True(t, resumed)
	u, _, err := m.Current()
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	require.NoError(t, m.Logout(ctx))
	assert.ErrorIs(t, m.Logout(ctx), ErrNoSession)

	stored, err := repo.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)

	resumed, err = m.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, resumed)
}

func TestLoginReplacesSession(t *testing.T) {
	m, _ := newTestManager(t, time.Now())
	ctx := context.Background()

	_, err := m.LoginAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	_, first, err := m.Current()
	require.NoError(t, err)

	_, err = m.LoginStudent(ctx, "Ravi", "Biotechnology", "2nd Year", "3rd Sem")
	require.NoError(t, err)
	u, second, err := m.Current()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, "ravi-biotechnology-2nd_year-3rd_sem", u.Scope())
	assert.Equal(t, u.Scope(), second.Engine().Scope())
}

func TestLoginFailsWhenRemindersUnreadable(t *testing.T) {
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	m, store := newFlakyManager(t, now)
	ctx := context.Background()

	scope := "asha-computer_science-1st_year-1st_sem"
	existing := []reminders.Reminder{
		{ID: 1, Text: "Essay", DueDate: "2024-04-01"},
		{ID: 2, Text: "Lab", DueDate: "2024-04-02"},
	}
	require.NoError(t, store.SaveReminders(ctx, scope, existing))

	store.failReads(1)
	_, err := m.LoginStudent(ctx, "Asha", "Computer Science", "1st Year", "1st Sem")
	require.Error(t, err)

	_, _, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession, "no session over an unread store")

	stored, err := store.Repository.GetReminders(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, existing, stored)

	// once the store reads again, the session sees and keeps the old records
	_, err = m.LoginStudent(ctx, "Asha", "Computer Science", "1st Year", "1st Sem")
	require.NoError(t, err)
	_, svc, err := m.Current()
	require.NoError(t, err)
	_, err = svc.Engine().Add(ctx, now, "New", "2024-04-03")
	require.NoError(t, err)

	stored, err = store.Repository.GetReminders(ctx, scope)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestResumeFailsWhenRemindersUnreadable(t *testing.T) {
	m, store := newFlakyManager(t, time.Now())
	ctx := context.Background()

	_, err := m.LoginAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	m.Close()

	store.failReads(1)
	resumed, err := m.Resume(ctx)
	assert.Error(t, err)
	assert.False(t, resumed)
	_, _, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}
