package pipeline

import (
	"context"

	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

// Decoder is the decode backend. It is called off the event loop.
type Decoder interface {
	Decode(ctx context.Context, fs vfs.FS, src *source.Source) (*source.Image, error)
}

// Memory registers images for usage based loading and eviction.
type Memory interface {
	Observe(images ...*source.Image)
}

// Album is the ordered collection of images presented to the user.
type Album interface {
	Extend(images ...*source.Image)
}

// FileInfo is the metadata gathered for a file source before it is dispatched.
type FileInfo struct {
	Err         error
	Path        string
	ContentType string
	Size        int64
	IsDir       bool
}

// Prefetcher gathers file metadata. Prefetch must not block, Lookup may and is called off the loop.
type Prefetcher interface {
	Prefetch(paths ...string)
	Lookup(ctx context.Context, path string) FileInfo
}
