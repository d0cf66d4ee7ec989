package openers

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-getter"
	"github.com/hashicorp/go-safetemp"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

const extractUmask = os.FileMode(0o022)

// archiveMimeTypes are the sniffed types of the formats go-getter decompresses.
var archiveMimeTypes = []string{
	"application/zip",
	"application/gzip",
	"application/x-gzip",
	"application/x-tar",
	"application/x-bzip2",
	"application/x-xz",
	"application/zstd",
}

// Archive extracts archives into a temporary directory owned by the yielded source.
type Archive struct {
	decompressors map[string]getter.Decompressor
	tempDir       string
	// suffixes are the decompressor keys, longest first so `tar.gz` wins over `gz`.
	suffixes []string
}

func NewArchive(tempDir string) *Archive {
	suffixes := make([]string, 0, len(getter.Decompressors))
	for key := range getter.Decompressors {
		suffixes = append(suffixes, key)
	}

	sort.Slice(suffixes, func(i, j int) bool {
		if len(suffixes[i]) != len(suffixes[j]) {
			return len(suffixes[i]) > len(suffixes[j])
		}

		return suffixes[i] < suffixes[j]
	})

	return &Archive{
		decompressors: getter.Decompressors,
		tempDir:       tempDir,
		suffixes:      suffixes,
	}
}

func (opener *Archive) Name() string { return ArchiveName }

func (opener *Archive) Filter() pipeline.Filter {
	exts := make([]string, 0, len(opener.suffixes))
	for _, suffix := range opener.suffixes {
		exts = append(exts, "."+suffix)
	}

	return pipeline.Filter{
		Kinds:      []source.Kind{source.KindFile},
		MimeTypes:  archiveMimeTypes,
		Extensions: exts,
	}
}

func (opener *Archive) Open(job *pipeline.Job, res *pipeline.Results, src *source.Source) {
	if !vfs.IsOSFS(job.FS()) {
		_ = res.Fail(errors.New(RequiresOSFSError{Opener: ArchiveName}))
		return
	}

	suffix, decompressor := opener.decompressor(src)
	if decompressor == nil {
		_ = res.Fail(errors.New(UnsupportedArchiveError{Path: src.Path}))
		return
	}

	var (
		dst   string
		cache io.Closer
		isDir bool
		err   error
	)

	job.Go(res, func(ctx context.Context) {
		dst, cache, isDir, err = opener.extract(ctx, src, suffix, decompressor)
	}, func() {
		if err != nil {
			_ = res.Fail(err)
			return
		}

		child := source.NewFile(dst, src)
		child.SetCache(cache)

		if isDir {
			child.ContentType = pipeline.DirectoryMimeType
		}

		_ = res.AddSource(child)
		_ = res.Complete()
	})
}

// decompressor picks by extension first, then by the sniffed content type.
func (opener *Archive) decompressor(src *source.Source) (string, getter.Decompressor) {
	name := strings.ToLower(src.Name)

	for _, suffix := range opener.suffixes {
		if strings.HasSuffix(name, "."+suffix) {
			return suffix, opener.decompressors[suffix]
		}
	}

	var suffix string

	switch src.ContentType {
	case "application/zip":
		suffix = "zip"
	case "application/gzip", "application/x-gzip":
		suffix = "gz"
	case "application/x-tar":
		suffix = "tar"
	case "application/x-bzip2":
		suffix = "bz2"
	case "application/x-xz":
		suffix = "xz"
	case "application/zstd":
		suffix = "zst"
	}

	return suffix, opener.decompressors[suffix]
}

func (opener *Archive) extract(ctx context.Context, src *source.Source, suffix string, decompressor getter.Decompressor) (string, io.Closer, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, false, errors.New(err)
	}

	dir, cache, err := safetemp.Dir(opener.tempDir, "imgopen-archive-")
	if err != nil {
		return "", nil, false, errors.New(err)
	}

	// Single file compressors such as gz yield the decompressed file itself.
	isDir := suffix == "zip" || strings.HasPrefix(suffix, "t")
	dst := dir

	if !isDir {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			cache.Close() //nolint:errcheck
			return "", nil, false, errors.New(err)
		}

		dst = filepath.Join(dir, strings.TrimSuffix(src.Name, filepath.Ext(src.Name)))
	}

	if err := decompressor.Decompress(dst, src.Path, isDir, extractUmask); err != nil {
		cache.Close() //nolint:errcheck
		return "", nil, false, errors.New(err)
	}

	return dst, cache, isDir, nil
}

// UnsupportedArchiveError is returned for files no decompressor handles.
type UnsupportedArchiveError struct {
	Path string
}

func (err UnsupportedArchiveError) Error() string {
	return "unsupported archive: " + err.Path
}
