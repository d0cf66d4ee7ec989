package source

import "fmt"

// Image is an openable image handle produced by the decode backend.
type Image struct {
	source *Source

	Format string
	Width  int
	Height int
	Size   int64
}

// NewImage returns an image decoded from src. The association with src is made by the pipeline
// once the open attempt completes.
func NewImage(src *Source, format string, width, height int, size int64) *Image {
	return &Image{
		source: src,
		Format: format,
		Width:  width,
		Height: height,
		Size:   size,
	}
}

// Source returns the source the image was decoded from.
func (img *Image) Source() *Source {
	return img.source
}

// Attach associates the image with its source, keeping the source alive.
func (img *Image) Attach() bool {
	return img.source.AddImage(img)
}

// Release detaches the image from its source, for example when the memory manager evicts it.
func (img *Image) Release() bool {
	return img.source.RemoveImage(img)
}

func (img *Image) String() string {
	return fmt.Sprintf("%s %dx%d %s", img.source, img.Width, img.Height, img.Format)
}
