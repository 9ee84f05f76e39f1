package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScope = "asha-computer_science-1st_year-1st_sem"

func newTestEngine(t *testing.T, seed ...Reminder) (*Engine, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	if len(seed) > 0 {
		require.NoError(t, store.SaveReminders(context.Background(), testScope, seed))
	}
	e := NewEngine(store, testScope, zerolog.Nop())
	require.NoError(t, e.Load(context.Background()))
	return e, store
}

func TestTickFiresDueReminderOnce(t *testing.T) {
	e, store := newTestEngine(t, Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01"})
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	fired, err := e.Tick(ctx, now)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, ReasonDue, fired[0].Reason)
	assert.Equal(t, Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01", Notified: true}, fired[0].Reminder)

	assert.Equal(t, []Reminder{{ID: 1, Text: "Essay", DueDate: "2024-03-01", Notified: true}}, store.stored(testScope))
	saves := store.saveCount()

	fired, err = e.Tick(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Equal(t, saves, store.saveCount(), "nothing changed, nothing persisted")

	fired, err = e.Tick(ctx, now.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestTickLeavesOtherRemindersUntouched(t *testing.T) {
	e, _ := newTestEngine(t,
		Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01"},
		Reminder{ID: 2, Text: "Lab", DueDate: "2024-03-04"},
	)

	fired, err := e.Tick(context.Background(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, int64(1), fired[0].Reminder.ID)

	list := e.Reminders()
	assert.True(t, list[0].Notified)
	assert.False(t, list[1].Notified)
}

func TestSnoozeLifecycle(t *testing.T) {
	e, store := newTestEngine(t, Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01"})
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	fired, err := e.Tick(ctx, t0)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	require.True(t, e.ShowAlert(fired[0].Reminder))

	snoozed, err := e.Snooze(ctx, t0, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, snoozed.SnoozedUntil)
	assert.Equal(t, t0.UnixMilli()+3600000, *snoozed.SnoozedUntil)
	assert.Empty(t, e.Alerts())
	assert.Equal(t, snoozed, store.stored(testScope)[0])

	fired, err = e.Tick(ctx, t0.Add(1800*time.Second))
	require.NoError(t, err)
	assert.Empty(t, fired)

	fired, err = e.Tick(ctx, t0.Add(3600001*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, ReasonSnooze, fired[0].Reason)
	assert.Nil(t, fired[0].Reminder.SnoozedUntil)
	assert.True(t, fired[0].Reminder.Notified)
	assert.Nil(t, store.stored(testScope)[0].SnoozedUntil)

	fired, err = e.Tick(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, fired, "an expired snooze consumes itself")
}

func TestSnoozeCustomDurationAndMissing(t *testing.T) {
	e, _ := newTestEngine(t, Reminder{ID: 7, Text: "Quiz", DueDate: "2024-03-10"})
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	r, err := e.Snooze(context.Background(), t0, 7, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(10*time.Minute).UnixMilli(), *r.SnoozedUntil)

	_, err = e.Snooze(context.Background(), t0, 99, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesFromStoreAndAlerts(t *testing.T) {
	e, store := newTestEngine(t,
		Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01"},
		Reminder{ID: 2, Text: "Lab", DueDate: "2024-03-09"},
	)
	ctx := context.Background()

	require.True(t, e.ShowAlert(Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01", Notified: true}))

	require.NoError(t, e.Delete(ctx, 1))
	assert.Empty(t, e.Alerts())
	assert.Equal(t, []Reminder{{ID: 2, Text: "Lab", DueDate: "2024-03-09"}}, store.stored(testScope))

	// never fired
	require.NoError(t, e.Delete(ctx, 2))
	assert.Empty(t, store.stored(testScope))

	assert.ErrorIs(t, e.Delete(ctx, 2), ErrNotFound)
}

func TestDismissOnlyHidesToast(t *testing.T) {
	e, store := newTestEngine(t, Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01", Notified: true})
	saves := store.saveCount()

	require.True(t, e.ShowAlert(e.Reminders()[0]))
	assert.True(t, e.Dismiss(1))
	assert.False(t, e.Dismiss(1))

	assert.Empty(t, e.Alerts())
	assert.Len(t, e.Reminders(), 1)
	assert.Equal(t, saves, store.saveCount())
}

func TestShowAlertReplacesInPlace(t *testing.T) {
	e, _ := newTestEngine(t,
		Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01"},
		Reminder{ID: 2, Text: "Lab", DueDate: "2024-03-01"},
	)

	e.ShowAlert(Reminder{ID: 1, Text: "Essay"})
	e.ShowAlert(Reminder{ID: 2, Text: "Lab"})
	e.ShowAlert(Reminder{ID: 1, Text: "Essay", Notified: true})

	alerts := e.Alerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, int64(1), alerts[0].ID)
	assert.True(t, alerts[0].Notified)

	assert.False(t, e.ShowAlert(Reminder{ID: 42}), "deleted reminders are not shown")
}

func TestAddAssignsIncreasingIDs(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	a, err := e.Add(ctx, now, "  Essay ", "2024-03-05")
	require.NoError(t, err)
	b, err := e.Add(ctx, now, "Lab", "2024-03-06")
	require.NoError(t, err)
	c, err := e.Add(ctx, now.Add(-time.Hour), "Quiz", "2024-03-07")
	require.NoError(t, err)

	assert.Equal(t, now.UnixMilli(), a.ID)
	assert.Greater(t, b.ID, a.ID)
	assert.Greater(t, c.ID, b.ID)
	assert.Equal(t, "Essay", a.Text)
	assert.False(t, a.Notified)
	assert.Nil(t, a.SnoozedUntil)
	assert.Len(t, store.stored(testScope), 3)
}

func TestAddIDsContinueAfterLoad(t *testing.T) {
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	e, _ := newTestEngine(t, Reminder{ID: future, Text: "Old", DueDate: "2024-03-01"})

	r, err := e.Add(context.Background(), time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), "New", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, future+1, r.ID)
}

func TestAddValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	now := time.Now()

	_, err := e.Add(context.Background(), now, "   ", "2024-03-05")
	assert.ErrorIs(t, err, ErrInvalidReminder)

	_, err = e.Add(context.Background(), now, "Essay", "05/03/2024")
	assert.ErrorIs(t, err, ErrInvalidReminder)

	assert.Empty(t, e.Reminders())
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	e, store := newTestEngine(t, Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01"})
	store.setFailSaves(true)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	fired, err := e.Tick(ctx, now)
	assert.ErrorIs(t, err, errStoreDown)
	require.Len(t, fired, 1, "fired batch is still returned for dispatch")
	assert.True(t, e.Reminders()[0].Notified)

	fired, err = e.Tick(ctx, now)
	assert.NoError(t, err)
	assert.Empty(t, fired, "memory is the source of truth for the session")

	_, err = e.Add(ctx, now, "Lab", "2024-03-02")
	assert.ErrorIs(t, err, errStoreDown)
	assert.Len(t, e.Reminders(), 2)

	assert.False(t, store.stored(testScope)[0].Notified)
}

func TestUpdateSettings(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	assert.Equal(t, DefaultSettings(), e.Settings())

	s := Settings{SoundEnabled: true, SoundType: SoundAlert, EmailEnabled: true, EmailAddress: "not-an-email"}
	require.NoError(t, e.UpdateSettings(ctx, s))
	assert.Equal(t, s, e.Settings())

	stored, err := store.GetReminderSettings(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, s, stored)

	bad := s
	bad.SoundType = "siren"
	assert.ErrorIs(t, e.UpdateSettings(ctx, bad), ErrInvalidSettings)
	assert.Equal(t, s, e.Settings())
}

func TestRemindersReturnsCopies(t *testing.T) {
	until := int64(5)
	e, _ := newTestEngine(t, Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01", SnoozedUntil: &until})

	list := e.Reminders()
	*list[0].SnoozedUntil = 99
	list[0].Text = "changed"

	again := e.Reminders()
	assert.Equal(t, int64(5), *again[0].SnoozedUntil)
	assert.Equal(t, "Essay", again[0].Text)
}
