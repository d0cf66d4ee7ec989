package fileinfo_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/imgopen/internal/fileinfo"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/vfs"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))

	return buf.Bytes()
}

func newFS(t *testing.T) vfs.FS {
	t.Helper()

	fs := vfs.NewMemMapFS()
	require.NoError(t, vfs.WriteFile(fs, "/photos/a.png", pngBytes(t), 0o644))
	require.NoError(t, vfs.WriteFile(fs, "/photos/notes.txt", []byte("hello\n"), 0o644))

	return fs
}

func TestDetect(t *testing.T) {
	t.Parallel()

	fs := newFS(t)

	testCases := []struct {
		path        string
		contentType string
		isDir       bool
		notExist    bool
	}{
		{path: "/photos/a.png", contentType: "image/png"},
		{path: "/photos/notes.txt", contentType: "text/plain"},
		{path: "/photos", contentType: pipeline.DirectoryMimeType, isDir: true},
		{path: "/photos/missing.png", notExist: true},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()

			info := fileinfo.Detect(fs, tc.path)

			assert.Equal(t, tc.path, info.Path)
			assert.Equal(t, tc.contentType, info.ContentType)
			assert.Equal(t, tc.isDir, info.IsDir)
			assert.Equal(t, tc.notExist, fileinfo.IsNotExist(info))
		})
	}
}

func TestPrefetchThenLookup(t *testing.T) {
	t.Parallel()

	fs := newFS(t)

	prefetcher := fileinfo.New(context.Background(), fs, 2, log.Discard())
	defer prefetcher.Close() //nolint:errcheck

	prefetcher.Prefetch("/photos/a.png", "/photos", "/photos/a.png")

	info := prefetcher.Lookup(context.Background(), "/photos/a.png")
	require.NoError(t, info.Err)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Positive(t, info.Size)

	// cached: the file is gone but the prefetched info remains
	require.NoError(t, fs.Remove("/photos/a.png"))

	info = prefetcher.Lookup(context.Background(), "/photos/a.png")
	assert.Equal(t, "image/png", info.ContentType)
}

// blockingFS blocks Stat of one path until release is closed.
type blockingFS struct {
	vfs.FS
	entered chan struct{}
	release chan struct{}
	path    string
}

func (fs *blockingFS) Stat(name string) (os.FileInfo, error) {
	if name == fs.path {
		close(fs.entered)
		<-fs.release
	}

	return fs.FS.Stat(name)
}

func TestCloseReleasesQueuedPrefetches(t *testing.T) {
	t.Parallel()

	fs := &blockingFS{
		FS:      newFS(t),
		entered: make(chan struct{}),
		release: make(chan struct{}),
		path:    "/photos",
	}

	prefetcher := fileinfo.New(context.Background(), fs, 1, log.Discard())

	// The only worker is busy with the directory, the file waits for it.
	prefetcher.Prefetch("/photos", "/photos/a.png")
	<-fs.entered

	closed := make(chan error, 1)
	go func() { closed <- prefetcher.Close() }()

	looked := make(chan pipeline.FileInfo, 1)
	go func() { looked <- prefetcher.Lookup(context.Background(), "/photos/a.png") }()

	close(fs.release)

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return")
	}

	select {
	case info := <-looked:
		require.NoError(t, info.Err)
		assert.Equal(t, "image/png", info.ContentType)
	case <-time.After(5 * time.Second):
		t.Fatal("lookup of an abandoned prefetch did not return")
	}
}

func TestLookupWithoutPrefetch(t *testing.T) {
	t.Parallel()

	prefetcher := fileinfo.New(context.Background(), newFS(t), 1, log.Discard())
	defer prefetcher.Close() //nolint:errcheck

	info := prefetcher.Lookup(context.Background(), "/photos")
	assert.True(t, info.IsDir)
	assert.Equal(t, pipeline.DirectoryMimeType, info.ContentType)
}

func TestBaseType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text/plain", fileinfo.BaseType("text/plain; charset=utf-8"))
	assert.Equal(t, "image/png", fileinfo.BaseType("image/png"))
}
