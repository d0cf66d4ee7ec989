// Package album holds the default output collaborators of the pipeline: the ordered Album
// the user browses and the Memory tracking which images are loaded.
package album

import (
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/source"
)

// Album is the ordered collection of opened images. It is used from the event loop only.
type Album struct {
	images []*source.Image
	index  map[*source.Image]int
}

func New() *Album {
	return &Album{index: make(map[*source.Image]int)}
}

// Extend appends images, skipping ones already in the album.
func (album *Album) Extend(images ...*source.Image) {
	for _, img := range images {
		if _, ok := album.index[img]; ok {
			continue
		}

		album.index[img] = len(album.images)
		album.images = append(album.images, img)
	}
}

func (album *Album) Len() int {
	return len(album.images)
}

func (album *Album) Images() []*source.Image {
	return album.images
}

// Clear empties the album and releases every image, which cleans the sources nothing else keeps alive.
func (album *Album) Clear() {
	images := album.images

	album.images = nil
	album.index = make(map[*source.Image]int)

	for _, img := range images {
		img.Release()
	}
}

// Print writes one line per image: index, location, dimensions and format.
func (album *Album) Print(w io.Writer) error {
	for i, img := range album.images {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%dx%d\t%s\n", i, img.Source(), img.Width, img.Height, img.Format); err != nil {
			return errors.New(err)
		}
	}

	return nil
}

// DefaultMemoryCapacity is the number of images kept loaded by default.
const DefaultMemoryCapacity = 64

// Memory tracks the most recently used images and unloads the others.
type Memory struct {
	loaded *lru.Cache[*source.Image, struct{}]
}

// NewMemory returns a memory keeping at most capacity images loaded. unload, if not nil, is called
// with every image evicted.
func NewMemory(capacity int, unload func(img *source.Image)) (*Memory, error) {
	loaded, err := lru.NewWithEvict(capacity, func(img *source.Image, _ struct{}) {
		if unload != nil {
			unload(img)
		}
	})
	if err != nil {
		return nil, errors.New(err)
	}

	return &Memory{loaded: loaded}, nil
}

// Observe registers newly opened images as loaded.
func (memory *Memory) Observe(images ...*source.Image) {
	for _, img := range images {
		memory.loaded.Add(img, struct{}{})
	}
}

// Touch marks img as used, reloading it if it was unloaded.
func (memory *Memory) Touch(img *source.Image) {
	if _, ok := memory.loaded.Get(img); !ok {
		memory.loaded.Add(img, struct{}{})
	}
}

func (memory *Memory) Loaded(img *source.Image) bool {
	return memory.loaded.Contains(img)
}

func (memory *Memory) Len() int {
	return memory.loaded.Len()
}
