package reminders

import (
	"context"
	"sync"
	"testing"
	"time"

	"acadease/internal/desktop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, clock *fixedClock, seed ...Reminder) (*Service, *harness) {
	t.Helper()
	h := newHarness(t, desktop.PermissionDenied, seed...)
	require.NoError(t, h.engine.UpdateSettings(context.Background(), Settings{SoundType: SoundBeep}))

	svc := NewService(&Config{CheckInterval: time.Hour}, h.engine, h.dispatcher, zerolog.Nop())
	svc.SetClock(clock.Now)
	return svc, h
}

func TestServiceStartRunsImmediately(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc, h := newTestService(t, clock, Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01"})

	svc.Start()
	defer svc.Stop()

	assert.Eventually(t, func() bool {
		return len(h.engine.Alerts()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.True(t, h.engine.Reminders()[0].Notified)
}

func TestServiceStartStopIdempotent(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, clock)

	svc.Start()
	svc.Start()
	svc.Stop()
	svc.Stop()

	svc.Start()
	svc.Stop()
}

func TestServiceCheckNowSnoozeScenario(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc, h := newTestService(t, clock, Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01"})
	ctx := context.Background()

	results := svc.CheckNow(ctx)
	assert.NotEmpty(t, results)
	require.Len(t, h.engine.Alerts(), 1)

	_, err := h.engine.Snooze(ctx, svc.Now(), 1, svc.SnoozeDuration())
	require.NoError(t, err)
	assert.Empty(t, h.engine.Alerts())

	clock.Advance(30 * time.Minute)
	assert.Empty(t, svc.CheckNow(ctx))
	assert.Empty(t, h.engine.Alerts())

	clock.Advance(30*time.Minute + time.Millisecond)
	assert.NotEmpty(t, svc.CheckNow(ctx))
	require.Len(t, h.engine.Alerts(), 1)
	assert.Nil(t, h.engine.Reminders()[0].SnoozedUntil)
}

func TestServiceDispatchesDespitePersistFailure(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc, h := newTestService(t, clock, Reminder{ID: 1, Text: "Essay", DueDate: "2024-03-01"})
	h.store.setFailSaves(true)

	results := svc.CheckNow(context.Background())
	assert.NotEmpty(t, results)
	assert.Len(t, h.engine.Alerts(), 1)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Minute, cfg.CheckInterval)
	assert.Equal(t, time.Hour, cfg.SnoozeDuration)

	e, _ := newTestEngine(t)
	svc := NewService(nil, e, NewDispatcher(zerolog.Nop()), zerolog.Nop())
	assert.Equal(t, time.Hour, svc.SnoozeDuration())
}
