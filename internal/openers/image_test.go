package openers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/imgopen/internal/openers"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

func TestImageDecodesHeader(t *testing.T) {
	t.Parallel()

	fs := vfs.NewMemMapFS()
	require.NoError(t, vfs.WriteFile(fs, "/photos/a.png", pngBytes(t, 5, 7), 0o644))
	require.NoError(t, vfs.WriteFile(fs, "/photos/broken.png", []byte("nope"), 0o644))

	src := source.NewFile("/photos/a.png", nil)
	res := openSource(t, fs, openers.NewImage(nil), src)

	require.Len(t, res.Images(), 1)
	assert.Equal(t, 5, res.Images()[0].Width)
	assert.Equal(t, 7, res.Images()[0].Height)
	assert.Same(t, src, res.Images()[0].Source())

	res = openSource(t, fs, openers.NewImage(nil), source.NewFile("/photos/broken.png", nil))
	assert.Empty(t, res.Images())
	assert.Len(t, res.Errors(), 1)
}
