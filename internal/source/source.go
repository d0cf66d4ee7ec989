// Package source models the items discovered by the pipeline and the ownership graph between them.
//
// A Source is kept alive by three things: images decoded from it, child sources discovered inside it,
// and explicit holds taken while it is being opened. As soon as none of these remain the source is
// cleaned: its cache (temporary directory, downloaded file, pasted data) is closed and it is unlinked
// from its parent, which may in turn become eligible for cleanup.
//
// Ownership always uses pointer identity. Resembles is a separate value-based heuristic that is only
// meant for de-duplicating sibling searches.
package source

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gruntwork-io/imgopen/pkg/log"
)

// Kind tells how a source is addressed.
type Kind int

const (
	KindFile Kind = iota
	KindURI
	KindSelection
)

func (kind Kind) String() string {
	switch kind {
	case KindFile:
		return "file"
	case KindURI:
		return "uri"
	case KindSelection:
		return "selection"
	}

	return fmt.Sprintf("kind(%d)", int(kind))
}

// Source is a discovered addressable item awaiting, or having gone through, an open attempt.
// It is not safe for concurrent use, all methods are called from the event loop.
type Source struct {
	cache    io.Closer
	parent   *Source
	images   map[*Image]struct{}
	children map[*Source]struct{}

	// Logger receives cleanup failures. Nil drops them.
	Logger log.Logger

	Name string
	// Path is set for file sources.
	Path string
	// URI is set for uri sources.
	URI string
	// Format is the selection format token, e.g. `text/uri-list`, set for selection sources.
	Format string
	// ContentType is the detected MIME type, filled in lazily by guessers.
	ContentType string
	// Data is the selection payload.
	Data []byte

	Kind Kind

	held    int
	linked  bool
	cleaned bool
}

// NewFile returns a source for a filesystem path.
func NewFile(path string, parent *Source) *Source {
	return newSource(KindFile, filepath.Base(path), parent, func(src *Source) {
		src.Path = path
	})
}

// NewURI returns a source for a URI.
func NewURI(uri string, parent *Source) *Source {
	name := uri
	if parsed, err := url.Parse(uri); err == nil && parsed.Path != "" {
		name = filepath.Base(parsed.Path)
	}

	return newSource(KindURI, name, parent, func(src *Source) {
		src.URI = uri
	})
}

// NewSelection returns a source for clipboard or drag-and-drop data offered in the given format.
func NewSelection(format string, data []byte, parent *Source) *Source {
	return newSource(KindSelection, format, parent, func(src *Source) {
		src.Format = format
		src.Data = data
	})
}

func newSource(kind Kind, name string, parent *Source, init func(src *Source)) *Source {
	src := &Source{
		Kind:     kind,
		Name:     name,
		parent:   parent,
		images:   make(map[*Image]struct{}),
		children: make(map[*Source]struct{}),
	}

	if parent != nil {
		src.Logger = parent.Logger
	}

	init(src)

	return src
}

// String returns the address of the source.
func (src *Source) String() string {
	switch src.Kind {
	case KindFile:
		return src.Path
	case KindURI:
		return src.URI
	case KindSelection:
		return "selection:" + src.Format
	}

	return src.Name
}

// Parent returns the source this one was discovered in, or nil for root sources.
func (src *Source) Parent() *Source {
	return src.parent
}

// Ext returns the lower-cased file extension of the source name, including the dot.
func (src *Source) Ext() string {
	return strings.ToLower(filepath.Ext(src.Name))
}

// SetCache attaches a resource owned by the source, closed when the source is cleaned.
// A previously attached cache is closed first.
func (src *Source) SetCache(cache io.Closer) {
	if src.cache != nil && src.cache != cache {
		src.closeCache()
	}

	src.cache = cache
}

// HasCache reports whether the source still owns a cache resource.
func (src *Source) HasCache() bool {
	return src.cache != nil
}

// Hold prevents the source from being cleaned until the matching Release.
func (src *Source) Hold() {
	src.held++
	src.cleaned = false
}

// Release drops a hold taken with Hold and cleans the source if nothing else keeps it alive.
// Releasing more than was held is a programming error.
func (src *Source) Release() {
	if src.held == 0 {
		panic(fmt.Sprintf("source %s: release without hold", src))
	}

	src.held--
	src.CheckCleanup()
}

// Held returns the current hold count.
func (src *Source) Held() int {
	return src.held
}

// AddImage associates an image with the source. It returns whether the association is new.
func (src *Source) AddImage(img *Image) bool {
	if _, ok := src.images[img]; ok {
		return false
	}

	src.images[img] = struct{}{}
	src.cleaned = false

	return true
}

// RemoveImage drops the association and cleans the source if nothing else keeps it alive.
func (src *Source) RemoveImage(img *Image) bool {
	if _, ok := src.images[img]; !ok {
		return false
	}

	delete(src.images, img)
	src.CheckCleanup()

	return true
}

// Images returns the number of associated images.
func (src *Source) Images() int {
	return len(src.images)
}

// AddChild associates a child source. It returns whether the association is new.
func (src *Source) AddChild(child *Source) bool {
	if _, ok := src.children[child]; ok {
		return false
	}

	src.children[child] = struct{}{}
	src.cleaned = false

	return true
}

// RemoveChild drops the association and cleans the source if nothing else keeps it alive.
func (src *Source) RemoveChild(child *Source) bool {
	if _, ok := src.children[child]; !ok {
		return false
	}

	delete(src.children, child)
	src.CheckCleanup()

	return true
}

// Children returns the number of associated child sources.
func (src *Source) Children() int {
	return len(src.children)
}

// LinkParent registers the source as a child of its parent, so the parent outlives it.
func (src *Source) LinkParent() {
	if src.linked || src.parent == nil {
		return
	}

	src.linked = true
	src.parent.AddChild(src)
}

// UnlinkParent removes the registration made by LinkParent, which may clean the parent.
func (src *Source) UnlinkParent() {
	if !src.linked {
		return
	}

	src.linked = false
	src.parent.RemoveChild(src)
}

// Linked reports whether the source is registered with its parent.
func (src *Source) Linked() bool {
	return src.linked
}

// Eligible reports whether nothing keeps the source alive.
func (src *Source) Eligible() bool {
	return len(src.images) == 0 && len(src.children) == 0 && src.held == 0
}

// Cleaned reports whether the source was cleaned since it last became eligible.
func (src *Source) Cleaned() bool {
	return src.cleaned
}

// CheckCleanup cleans the source if it is eligible. Cleanup runs once per transition into eligibility.
func (src *Source) CheckCleanup() bool {
	if src.cleaned || !src.Eligible() {
		return false
	}

	src.cleanup()

	return true
}

func (src *Source) cleanup() {
	src.cleaned = true

	src.closeCache()
	src.UnlinkParent()
}

func (src *Source) closeCache() {
	cache := src.cache
	src.cache = nil

	if cache == nil {
		return
	}

	if err := cache.Close(); err != nil && src.Logger != nil {
		src.Logger.WithField(log.FieldKeySource, src.String()).Debugf("Error cleaning cache: %v", err)
	}
}

// Resembles reports whether both sources likely address the same item. The comparison is tried in both
// directions since, e.g., only a uri source knows how to compare itself to a file path.
func (src *Source) Resembles(other *Source) bool {
	if src == nil || other == nil {
		return false
	}

	if src == other {
		return true
	}

	return src.resembles(other) || other.resembles(src)
}

func (src *Source) resembles(other *Source) bool {
	switch src.Kind {
	case KindFile:
		return other.Kind == KindFile && cleanAbs(src.Path) == cleanAbs(other.Path)
	case KindURI:
		switch other.Kind {
		case KindURI:
			return strings.TrimSuffix(src.URI, "/") == strings.TrimSuffix(other.URI, "/")
		case KindFile:
			if path, ok := LocalPath(src.URI); ok {
				return cleanAbs(path) == cleanAbs(other.Path)
			}
		case KindSelection:
		}
	case KindSelection:
		return other.Kind == KindSelection && src.Format == other.Format && string(src.Data) == string(other.Data)
	}

	return false
}

// LocalPath returns the filesystem path of a `file://` URI.
func LocalPath(uri string) (string, bool) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return "", false
	}

	return filepath.FromSlash(parsed.Path), true
}

func cleanAbs(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return filepath.Clean(path)
}

// CacheFunc adapts a function to an io.Closer usable as a source cache.
type CacheFunc func() error

func (fn CacheFunc) Close() error {
	return fn()
}
