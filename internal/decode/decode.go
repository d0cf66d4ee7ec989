// Package decode is the default decode backend. It only reads image headers: dimensions and
// format are enough for the pipeline, pixel decoding happens when an image is displayed.
package decode

import (
	"context"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

// MimeTypes are the content types Decoder understands.
var MimeTypes = []string{"image/png", "image/jpeg", "image/gif"}

// Extensions are the file extensions Decoder understands.
var Extensions = []string{".png", ".jpg", ".jpeg", ".jpe", ".gif"}

// UnsupportedFormatError is returned for files that are not in a registered image format.
type UnsupportedFormatError struct {
	Path string
}

func (err UnsupportedFormatError) Error() string {
	return "unsupported image format: " + err.Path
}

// Decoder reads image headers from a vfs.
type Decoder struct{}

func New() *Decoder {
	return &Decoder{}
}

// Decode returns the image stored in the file source src.
func (decoder *Decoder) Decode(ctx context.Context, fs vfs.FS, src *source.Source) (*source.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.New(err)
	}

	file, err := fs.Open(src.Path)
	if err != nil {
		return nil, errors.New(err)
	}
	defer file.Close() //nolint:errcheck

	stat, err := file.Stat()
	if err != nil {
		return nil, errors.New(err)
	}

	config, format, err := image.DecodeConfig(&contextReader{ctx: ctx, reader: file})
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, errors.New(UnsupportedFormatError{Path: src.Path})
		}

		return nil, errors.New(err)
	}

	return source.NewImage(src, format, config.Width, config.Height, stat.Size()), nil
}

// contextReader stops reading once ctx is done, so a cancelled open of a slow file returns early.
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (reader *contextReader) Read(p []byte) (int, error) {
	if err := reader.ctx.Err(); err != nil {
		return 0, err
	}

	return reader.reader.Read(p)
}
