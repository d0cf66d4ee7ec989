package openers

import (
	"bufio"
	"bytes"
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

const (
	URIListFormat    = "text/uri-list"
	UTF8StringFormat = "UTF8_STRING"
)

// imageDataFormats maps the image formats accepted from a selection to the extension of the stored file.
var imageDataFormats = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

// URIList opens `text/uri-list` selections, one uri source per line.
type URIList struct{}

func NewURIList() *URIList {
	return &URIList{}
}

func (opener *URIList) Name() string { return URIListName }

func (opener *URIList) Filter() pipeline.Filter {
	return pipeline.Filter{
		Kinds:   []source.Kind{source.KindSelection},
		Formats: []string{URIListFormat},
	}
}

func (opener *URIList) Open(_ *pipeline.Job, res *pipeline.Results, src *source.Source) {
	uris, err := lines(src.Data)
	_ = res.AddError(err)

	for _, line := range uris {
		if strings.HasPrefix(line, "#") {
			continue
		}

		_, _ = res.AddURI(line)
	}

	_ = res.Complete()
}

// Text opens plain text selections, one path or uri per line.
type Text struct{}

func NewText() *Text {
	return &Text{}
}

func (opener *Text) Name() string { return TextName }

func (opener *Text) Filter() pipeline.Filter {
	return pipeline.Filter{
		Kinds:   []source.Kind{source.KindSelection},
		Formats: []string{pipeline.TextFormat, UTF8StringFormat},
	}
}

func (opener *Text) Open(_ *pipeline.Job, res *pipeline.Results, src *source.Source) {
	entries, err := lines(src.Data)
	_ = res.AddError(err)

	for _, line := range entries {
		if isURI(line) {
			_, _ = res.AddURI(line)
			continue
		}

		path, err := homedir.Expand(line)
		if err != nil {
			_ = res.AddError(errors.New(err))
			continue
		}

		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir(src), path)
		}

		_, _ = res.AddFile(path)
	}

	_ = res.Complete()
}

// baseDir resolves relative paths against the file the selection was dropped on.
func baseDir(src *source.Source) string {
	origin := src.Parent()
	if origin == nil || origin.Kind != source.KindFile {
		return "."
	}

	if origin.ContentType == pipeline.DirectoryMimeType {
		return origin.Path
	}

	return filepath.Dir(origin.Path)
}

// ImageData stores pasted image bytes in a temporary file owned by the yielded source.
type ImageData struct{}

func NewImageData() *ImageData {
	return &ImageData{}
}

func (opener *ImageData) Name() string { return ImageDataName }

func (opener *ImageData) Filter() pipeline.Filter {
	return pipeline.Filter{
		Kinds:   []source.Kind{source.KindSelection},
		Formats: []string{"image/gif", "image/jpeg", "image/png"},
	}
}

func (opener *ImageData) Open(job *pipeline.Job, res *pipeline.Results, src *source.Source) {
	fs := job.FS()

	var (
		path string
		err  error
	)

	job.Go(res, func(_ context.Context) {
		path, err = store(fs, src)
	}, func() {
		if err != nil {
			_ = res.Fail(err)
			return
		}

		dir := filepath.Dir(path)

		child, _ := res.AddFile(path)
		child.ContentType = src.Format
		child.SetCache(source.CacheFunc(func() error {
			return vfs.RemoveAll(fs, dir)
		}))

		_ = res.Complete()
	})
}

func store(fs vfs.FS, src *source.Source) (string, error) {
	dir, err := vfs.TempDir(fs, "imgopen-paste-")
	if err != nil {
		return "", errors.New(err)
	}

	path := filepath.Join(dir, "pasted"+imageDataFormats[src.Format])

	if err := vfs.WriteFile(fs, path, src.Data, 0o600); err != nil {
		_ = vfs.RemoveAll(fs, dir)
		return "", errors.New(err)
	}

	return path, nil
}

// lines returns the trimmed non-empty lines of data. A single line may span the whole data,
// as pasted data uris do.
func lines(data []byte) ([]string, error) {
	var out []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), len(data)+1)

	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return out, errors.New(err)
	}

	return out, nil
}

func isURI(line string) bool {
	parsed, err := url.Parse(line)

	return err == nil && len(parsed.Scheme) > 1 && strings.Contains(line, "://")
}
