package openers_test

import (
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/openers"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)

	writer := zip.NewWriter(file)

	for name, data := range files {
		entry, err := writer.Create(name)
		require.NoError(t, err)

		_, err = entry.Write(data)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())
}

func TestArchiveExtractsZip(t *testing.T) {
	t.Parallel()

	inputDir, tempDir := t.TempDir(), t.TempDir()
	archivePath := filepath.Join(inputDir, "album.zip")

	writeZip(t, archivePath, map[string][]byte{
		"a.png":     pngBytes(t, 1, 1),
		"sub/b.png": pngBytes(t, 2, 2),
	})

	src := source.NewFile(archivePath, nil)
	res := openSource(t, vfs.NewOSFS(), openers.NewArchive(tempDir), src)

	require.Empty(t, res.Errors())
	require.Len(t, res.Sources(), 1)

	dir := res.Sources()[0]
	assert.Same(t, src, dir.Parent())
	assert.Equal(t, pipeline.DirectoryMimeType, dir.ContentType)
	assert.True(t, dir.HasCache())
	assert.FileExists(t, filepath.Join(dir.Path, "a.png"))
	assert.FileExists(t, filepath.Join(dir.Path, "sub", "b.png"))

	// cleaning the extracted directory deletes it
	assert.True(t, dir.CheckCleanup())
	assert.NoDirExists(t, dir.Path)
}

func TestArchiveDecompressesSingleFile(t *testing.T) {
	t.Parallel()

	inputDir, tempDir := t.TempDir(), t.TempDir()
	archivePath := filepath.Join(inputDir, "a.png.gz")

	file, err := os.Create(archivePath)
	require.NoError(t, err)

	writer := gzip.NewWriter(file)
	_, err = writer.Write(pngBytes(t, 3, 3))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())

	res := openSource(t, vfs.NewOSFS(), openers.NewArchive(tempDir), source.NewFile(archivePath, nil))

	require.Empty(t, res.Errors())
	require.Len(t, res.Sources(), 1)

	extracted := res.Sources()[0]
	assert.Equal(t, "a.png", extracted.Name)
	assert.Empty(t, extracted.ContentType)
	assert.FileExists(t, extracted.Path)

	assert.True(t, extracted.CheckCleanup())
	assert.NoFileExists(t, extracted.Path)
}

func TestArchiveFailures(t *testing.T) {
	t.Parallel()

	inputDir := t.TempDir()
	corrupt := filepath.Join(inputDir, "corrupt.zip")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a zip"), 0o644))

	res := openSource(t, vfs.NewOSFS(), openers.NewArchive(t.TempDir()), source.NewFile(corrupt, nil))
	assert.Len(t, res.Errors(), 1)
	assert.Empty(t, res.Sources())

	res = openSource(t, vfs.NewMemMapFS(), openers.NewArchive(""), source.NewFile("/in/a.zip", nil))
	require.Len(t, res.Errors(), 1)

	var osErr openers.RequiresOSFSError
	assert.True(t, errors.As(res.Errors()[0], &osErr))

	res = openSource(t, vfs.NewOSFS(), openers.NewArchive(""), source.NewFile(filepath.Join(inputDir, "notes.txt"), nil))
	require.Len(t, res.Errors(), 1)

	var archiveErr openers.UnsupportedArchiveError
	assert.True(t, errors.As(res.Errors()[0], &archiveErr))
}

func TestArchiveFilter(t *testing.T) {
	t.Parallel()

	filter := openers.NewArchive("").Filter()

	for _, name := range []string{"a.zip", "b.tar.gz", "c.TGZ", "d.png.gz", "e.tar"} {
		assert.True(t, filter.MatchExtension(name), name)
	}

	assert.False(t, filter.MatchExtension("a.png"))
	assert.True(t, filter.MatchMimeType("application/zip"))
}
