package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileMarker_EmptyPath(t *testing.T) {
	_, err := NewFileMarker("  ")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestFileMarker_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timestamp")
	marker, err := NewFileMarker(path)
	require.NoError(t, err)
	assert.Equal(t, path, marker.Path())

	since, err := marker.Since()
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, since.IsZero())

	started := time.Unix(1_700_000_000, 500)
	require.NoError(t, marker.Commit(started))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1700000000\n", string(data))

	since, err = marker.Since()
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), since.Unix())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileMarker_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timestamp")
	require.NoError(t, os.WriteFile(path, []byte("12\n"), 0o600))

	marker, err := NewFileMarker(path)
	require.NoError(t, err)

	since, err := marker.Since()
	require.NoError(t, err)
	assert.Equal(t, int64(12), since.Unix())

	require.NoError(t, marker.Commit(time.Unix(34, 0)))
	since, err = marker.Since()
	require.NoError(t, err)
	assert.Equal(t, int64(34), since.Unix())
}

func TestFileMarker_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timestamp")
	require.NoError(t, os.WriteFile(path, []byte("yesterday"), 0o644))

	marker, err := NewFileMarker(path)
	require.NoError(t, err)

	_, err = marker.Since()
	require.Error(t, err)
	assert.NotErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "yesterday")
}

func TestFileMarker_CommitMissingDir(t *testing.T) {
	marker, err := NewFileMarker(filepath.Join(t.TempDir(), "nope", "timestamp"))
	require.NoError(t, err)
	assert.Error(t, marker.Commit(time.Now()))
}

func TestMemoryMarker(t *testing.T) {
	var marker Marker = NewMemoryMarker(time.Time{})

	since, err := marker.Since()
	require.NoError(t, err)
	assert.True(t, since.IsZero())

	now := time.Unix(99, 0)
	require.NoError(t, marker.Commit(now))
	since, err = marker.Since()
	require.NoError(t, err)
	assert.Equal(t, now, since)
}
