package openers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/imgopen/internal/openers"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

func TestLocalURI(t *testing.T) {
	t.Parallel()

	src := source.NewURI("file:///photos/a.png", nil)
	res := openSource(t, vfs.NewMemMapFS(), openers.NewLocalURI(), src)

	require.Len(t, res.Sources(), 1)
	assert.Equal(t, source.KindFile, res.Sources()[0].Kind)
	assert.Equal(t, "/photos/a.png", res.Sources()[0].Path)
	assert.Same(t, src, res.Sources()[0].Parent())

	res = openSource(t, vfs.NewMemMapFS(), openers.NewLocalURI(), source.NewURI("https://example.com/a.png", nil))
	assert.Len(t, res.Errors(), 1)
}

func TestDownload(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 2, 2)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/a.png" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	tempDir := t.TempDir()

	src := source.NewURI(server.URL+"/images/a.png", nil)
	res := openSource(t, vfs.NewOSFS(), openers.NewDownload(tempDir), src)

	require.Empty(t, res.Errors())
	require.Len(t, res.Sources(), 1)

	file := res.Sources()[0]
	assert.Equal(t, "a.png", file.Name)
	assert.True(t, file.HasCache())

	downloaded, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, data, downloaded)

	assert.True(t, file.CheckCleanup())
	assert.NoFileExists(t, file.Path)

	res = openSource(t, vfs.NewOSFS(), openers.NewDownload(tempDir), source.NewURI(server.URL+"/missing.png", nil))
	assert.Len(t, res.Errors(), 1)
	assert.Empty(t, res.Sources())
}
