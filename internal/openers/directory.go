package openers

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

// Directory lists a directory, yielding one file source per entry in name order.
type Directory struct {
	ignore     []glob.Glob
	showHidden bool
}

func NewDirectory(showHidden bool, ignore ...glob.Glob) *Directory {
	return &Directory{ignore: ignore, showHidden: showHidden}
}

func (opener *Directory) Name() string { return DirectoryName }

func (opener *Directory) Filter() pipeline.Filter {
	return pipeline.Filter{
		Kinds:     []source.Kind{source.KindFile},
		MimeTypes: []string{pipeline.DirectoryMimeType},
	}
}

func (opener *Directory) Open(job *pipeline.Job, res *pipeline.Results, src *source.Source) {
	var (
		entries []os.FileInfo
		err     error
	)

	job.Go(res, func(_ context.Context) {
		entries, err = vfs.ReadDir(job.FS(), src.Path)
	}, func() {
		if err != nil {
			_ = res.Fail(errors.New(err))
			return
		}

		for _, entry := range entries {
			if opener.skip(entry.Name()) {
				continue
			}

			child := source.NewFile(filepath.Join(src.Path, entry.Name()), src)
			if entry.IsDir() {
				child.ContentType = pipeline.DirectoryMimeType
			}

			_ = res.AddSource(child)
		}

		_ = res.Complete()
	})
}

func (opener *Directory) skip(name string) bool {
	if !opener.showHidden && strings.HasPrefix(name, ".") {
		return true
	}

	for _, pattern := range opener.ignore {
		if pattern.Match(name) {
			return true
		}
	}

	return false
}
