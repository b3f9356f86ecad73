package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUserConfig(t *testing.T, xdg string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "docrag"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "docrag", "config.yaml"), []byte("search:\n  max_results: 42\n"), 0644))
}

func TestBackupUserConfigNoneExistsReturnsEmpty(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupUserConfigCreatesTimestampedCopy(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeUserConfig(t, xdg)

	path, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.FileExists(t, path)
}

func TestListUserConfigBackupsNewestFirst(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeUserConfig(t, xdg)

	first, err := BackupUserConfig()
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := BackupUserConfig()
	require.NoError(t, err)

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, second, backups[0])
	assert.Equal(t, first, backups[1])
}

func TestCleanupOldBackupsKeepsMaxBackups(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeUserConfig(t, xdg)

	for i := 0; i < MaxBackups+2; i++ {
		_, err := BackupUserConfig()
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
}

func TestRestoreUserConfigFromBackup(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeUserConfig(t, xdg)

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(GetUserConfigPath(), []byte("search:\n  max_results: 1\n"), 0644))

	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(GetUserConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_results: 42")
}
