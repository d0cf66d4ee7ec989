package vfs_test

import (
	"path/filepath"
	"testing"

	"github.com/gruntwork-io/imgopen/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDirIsSorted(t *testing.T) {
	t.Parallel()

	fs := vfs.NewMemMapFS()

	for _, name := range []string{"c.png", "a.png", "b.jpg"} {
		require.NoError(t, vfs.WriteFile(fs, filepath.Join("/photos", name), []byte("x"), 0o644))
	}

	entries, err := vfs.ReadDir(fs, "/photos")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	assert.Equal(t, []string{"a.png", "b.jpg", "c.png"}, names)
}

func TestFileExistsAndIsDir(t *testing.T) {
	t.Parallel()

	fs := vfs.NewMemMapFS()
	require.NoError(t, vfs.WriteFile(fs, "/dir/file.png", []byte("x"), 0o644))

	exists, err := vfs.FileExists(fs, "/dir/file.png")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = vfs.FileExists(fs, "/dir/missing.png")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.True(t, vfs.IsDir(fs, "/dir"))
	assert.False(t, vfs.IsDir(fs, "/dir/file.png"))
}

func TestTempDirAndRemoveAll(t *testing.T) {
	t.Parallel()

	fs := vfs.NewMemMapFS()

	dir, err := vfs.TempDir(fs, "imgopen-")
	require.NoError(t, err)
	assert.True(t, vfs.IsDir(fs, dir))

	require.NoError(t, vfs.WriteFile(fs, filepath.Join(dir, "paste.png"), []byte("x"), 0o600))
	require.NoError(t, vfs.RemoveAll(fs, dir))
	assert.False(t, vfs.IsDir(fs, dir))
	assert.False(t, vfs.IsOSFS(fs))
	assert.True(t, vfs.IsOSFS(vfs.NewOSFS()))
}
