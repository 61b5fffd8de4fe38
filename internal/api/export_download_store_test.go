package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tempExport(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("xlsx"), 0o600))
	return path
}

func TestExportFiles_TakeIsOneShot(t *testing.T) {
	files := newExportFiles(time.Minute, zap.NewNop())
	path := tempExport(t, "a.xlsx")

	token := files.register(path, "2025-06")
	f, ok := files.take(token)
	require.True(t, ok)
	assert.Equal(t, path, f.path)
	assert.Equal(t, "2025-06", f.month)

	_, ok = files.take(token)
	assert.False(t, ok)
}

func TestExportFiles_SweepRemovesExpiredFiles(t *testing.T) {
	files := newExportFiles(time.Minute, zap.NewNop())
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	files.now = func() time.Time { return now }

	stale := tempExport(t, "stale.xlsx")
	staleToken := files.register(stale, "2025-05")

	now = now.Add(2 * time.Minute)
	fresh := tempExport(t, "fresh.xlsx")
	freshToken := files.register(fresh, "2025-06")

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "expired export should be deleted from disk")
	_, ok := files.take(staleToken)
	assert.False(t, ok)

	_, err = os.Stat(fresh)
	require.NoError(t, err)
	_, ok = files.take(freshToken)
	assert.True(t, ok)
}

func TestExportFiles_SweepToleratesMissingFile(t *testing.T) {
	files := newExportFiles(time.Second, zap.NewNop())
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	files.now = func() time.Time { return now }

	token := files.register(filepath.Join(t.TempDir(), "gone.xlsx"), "2025-06")
	now = now.Add(time.Minute)

	_, ok := files.take(token)
	assert.False(t, ok)
	assert.Empty(t, files.files)
}
