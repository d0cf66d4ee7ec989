package openers

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	getterv2 "github.com/hashicorp/go-getter/v2"
	"github.com/hashicorp/go-safetemp"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

// LocalURI turns `file://` URIs into file sources.
type LocalURI struct{}

func NewLocalURI() *LocalURI {
	return &LocalURI{}
}

func (opener *LocalURI) Name() string { return LocalURIName }

func (opener *LocalURI) Filter() pipeline.Filter {
	return pipeline.Filter{
		Kinds:   []source.Kind{source.KindURI},
		Schemes: []string{"file"},
	}
}

func (opener *LocalURI) Open(_ *pipeline.Job, res *pipeline.Results, src *source.Source) {
	path, ok := source.LocalPath(src.URI)
	if !ok {
		_ = res.Fail(errors.New(InvalidURIError{URI: src.URI}))
		return
	}

	_, _ = res.AddFile(path)
	_ = res.Complete()
}

// Download fetches remote URIs into a temporary directory owned by the yielded file source,
// which is then opened like any local file.
type Download struct {
	client  *getterv2.Client
	tempDir string
}

func NewDownload(tempDir string) *Download {
	return &Download{
		client:  &getterv2.Client{Getters: getterv2.Getters},
		tempDir: tempDir,
	}
}

func (opener *Download) Name() string { return DownloadName }

// Filter is empty besides the kind: download is the fallback of the uri guesser, never a guess.
func (opener *Download) Filter() pipeline.Filter {
	return pipeline.Filter{Kinds: []source.Kind{source.KindURI}}
}

func (opener *Download) Open(job *pipeline.Job, res *pipeline.Results, src *source.Source) {
	if !vfs.IsOSFS(job.FS()) {
		_ = res.Fail(errors.New(RequiresOSFSError{Opener: DownloadName}))
		return
	}

	var (
		dst   string
		cache io.Closer
		err   error
	)

	job.Go(res, func(ctx context.Context) {
		dst, cache, err = opener.fetch(ctx, src)
	}, func() {
		if err != nil {
			_ = res.Fail(err)
			return
		}

		child, _ := res.AddFile(dst)
		child.SetCache(cache)

		_ = res.Complete()
	})
}

func (opener *Download) fetch(ctx context.Context, src *source.Source) (string, io.Closer, error) {
	dir, cache, err := safetemp.Dir(opener.tempDir, "imgopen-download-")
	if err != nil {
		return "", nil, errors.New(err)
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		cache.Close() //nolint:errcheck
		return "", nil, errors.New(err)
	}

	dst := filepath.Join(dir, downloadName(src))

	req := &getterv2.Request{
		Src:     src.URI,
		Dst:     dst,
		GetMode: getterv2.ModeFile,
	}

	if _, err := opener.client.Get(ctx, req); err != nil {
		cache.Close() //nolint:errcheck
		return "", nil, errors.New(err)
	}

	return dst, cache, nil
}

func downloadName(src *source.Source) string {
	name := strings.TrimSpace(src.Name)
	if name == "" || name == "." || name == "/" || strings.ContainsAny(name, `/\:?*`) {
		return "download"
	}

	return name
}

// InvalidURIError is returned for URIs an opener was chosen for but cannot parse.
type InvalidURIError struct {
	URI string
}

func (err InvalidURIError) Error() string {
	return "invalid uri: " + err.URI
}
