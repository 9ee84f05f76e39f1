package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"acadease/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "acadease.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite bytes"), 0o644))

	backupDir := filepath.Join(dir, "backups")
	logger := zerolog.Nop()
	svc := NewBackupService(dbPath, config.BackupConfig{Enabled: true, StoragePath: backupDir, RetentionDays: 7}, &logger)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	path, err := svc.PerformBackup()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backupDir, "acadease_20240301_090000.db"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite bytes", string(data))

	old := filepath.Join(backupDir, "acadease_20240101_090000.db")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
	stale := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(old, stale, stale))

	unrelated := filepath.Join(backupDir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))
	require.NoError(t, os.Chtimes(unrelated, stale, stale))

	assert.Equal(t, 1, svc.CleanupOldBackups())
	assert.NoFileExists(t, old)
	assert.FileExists(t, unrelated)
	assert.FileExists(t, path)
}

func TestBackupMissingDatabase(t *testing.T) {
	logger := zerolog.Nop()
	svc := NewBackupService(filepath.Join(t.TempDir(), "nope.db"), config.BackupConfig{Enabled: true, StoragePath: t.TempDir()}, &logger)

	_, err := svc.PerformBackup()
	assert.Error(t, err)
}
