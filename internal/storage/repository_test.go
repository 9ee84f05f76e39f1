package storage

import (
	"context"
	"testing"

	"acadease/internal/assistant"
	"acadease/internal/desktop"
	"acadease/internal/profile"
	"acadease/internal/reminders"
	"acadease/internal/timetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryReminders(t *testing.T) {
	kv := newSQLite(t)
	repo := NewRepository(kv)
	ctx := context.Background()

	got, err := repo.GetReminders(ctx, "admin")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	until := int64(1709283600000)
	list := []reminders.Reminder{
		{ID: 1, Text: "Essay", DueDate: "2024-03-01", Notified: true},
		{ID: 2, Text: "Lab", DueDate: "2024-03-02", SnoozedUntil: &until},
	}
	require.NoError(t, repo.SaveReminders(ctx, "admin", list))

	got, err = repo.GetReminders(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, list, got)

	raw, err := kv.Get(ctx, "acadease_reminders_admin")
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":1,"text":"Essay","dueDate":"2024-03-01","notified":true},
		{"id":2,"text":"Lab","dueDate":"2024-03-02","snoozedUntil":1709283600000}
	]`, string(raw))

	other, err := repo.GetReminders(ctx, "asha-cse-1st_year-1st_sem")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepositorySettingsMergeOverDefaults(t *testing.T) {
	kv := newSQLite(t)
	repo := NewRepository(kv)
	ctx := context.Background()

	s, err := repo.GetReminderSettings(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, reminders.DefaultSettings(), s)

	require.NoError(t, kv.Set(ctx, "acadease_settings_admin", []byte(`{"emailEnabled":true}`)))

	s, err = repo.GetReminderSettings(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, s.SoundEnabled)
	assert.Equal(t, reminders.SoundBeep, s.SoundType)
	assert.True(t, s.EmailEnabled)
	assert.Empty(t, s.EmailAddress)

	want := reminders.Settings{SoundEnabled: false, SoundType: reminders.SoundChime, EmailEnabled: true, EmailAddress: "a@b.c"}
	require.NoError(t, repo.SaveReminderSettings(ctx, "admin", want))
	s, err = repo.GetReminderSettings(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, want, s)
}

func TestRepositoryCorruptRecord(t *testing.T) {
	kv := newSQLite(t)
	repo := NewRepository(kv)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "acadease_reminders_admin", []byte("not json")))
	_, err := repo.GetReminders(ctx, "admin")
	assert.Error(t, err)
}

func TestRepositoryUser(t *testing.T) {
	repo := NewRepository(newSQLite(t))
	ctx := context.Background()

	u, err := repo.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	want := profile.User{Name: "Asha", Branch: "Computer Science", Year: "1st Year", Semester: "1st Sem", Role: profile.RoleStudent}
	require.NoError(t, repo.SaveUser(ctx, want))

	u, err = repo.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, want, *u)

	require.NoError(t, repo.ClearUser(ctx))
	u, err = repo.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRepositoryTimetableChatAndPermission(t *testing.T) {
	kv, _ := newRedis(t)
	repo := NewRepository(kv)
	ctx := context.Background()

	tt, err := repo.GetTimetable(ctx)
	require.NoError(t, err)
	assert.Empty(t, tt)

	tt = timetable.Timetable{
		"Computer Science-1st Year-1st Sem": {{ID: 1, Day: "Monday", Subject: "Maths", StartTime: "09:00", EndTime: "10:00"}},
	}
	require.NoError(t, repo.SaveTimetable(ctx, tt))
	got, err := repo.GetTimetable(ctx)
	require.NoError(t, err)
	assert.Equal(t, tt, got)

	history := []assistant.Message{{ID: "m1", Text: "hi", Sender: assistant.SenderUser}}
	require.NoError(t, repo.SaveChatHistory(ctx, "admin", history))
	gotHistory, err := repo.GetChatHistory(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, history, gotHistory)

	p, err := repo.GetPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, desktop.PermissionDefault, p)

	require.NoError(t, repo.SavePermission(ctx, desktop.PermissionDenied))
	p, err = repo.GetPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, desktop.PermissionDenied, p)
}
