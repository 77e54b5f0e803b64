package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2026, 10, 14, 9, 5, 3, 0, time.UTC)

func TestFileName(t *testing.T) {
	name := FileName(ts)
	assert.Equal(t, "snapshot_2026-10-14T09-05-03.jpg", name)
	assert.False(t, strings.Contains(name, ":"))
}

func TestDir(t *testing.T) {
	assert.Equal(t, filepath.Join("base", "snapshots"), Dir("base"))
	assert.NotEmpty(t, DefaultBase())
}

func TestPrepare_CreatesDirectory(t *testing.T) {
	dir := Dir(t.TempDir())

	path, err := Prepare(dir, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "snapshot_2026-10-14T09-05-03.jpg"), path)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPrepare_AvoidsCollisions(t *testing.T) {
	dir := t.TempDir()

	first, err := Prepare(dir, ts)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(first, []byte("x"), 0o644))

	second, err := Prepare(dir, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "snapshot_2026-10-14T09-05-03_1.jpg"), second)
	require.NoError(t, os.WriteFile(second, []byte("x"), 0o644))

	third, err := Prepare(dir, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "snapshot_2026-10-14T09-05-03_2.jpg"), third)
}

func TestPrepare_FailsWhenDirIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "snapshots")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Prepare(file, ts)
	assert.Error(t, err)
}
