// Package fileinfo prefetches the metadata the pipeline needs before choosing an opener:
// whether a path is a directory, its size and its sniffed content type.
//
// Lookups are cached for the lifetime of the Prefetcher, so that warming the cache with
// Prefetch right after sources are queued makes the later Lookup from the dispatcher cheap.
package fileinfo

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/vfs"
	"github.com/gruntwork-io/imgopen/internal/worker"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

const DefaultWorkers = 4

type entry struct {
	done chan struct{}
	once sync.Once
	info pipeline.FileInfo
	// queued entries are resolved by the pool, the others by the Lookup that stored them.
	queued bool
	// dropped is set when the pool stopped before resolving the entry.
	dropped bool
}

func (ent *entry) finish(info pipeline.FileInfo, dropped bool) {
	ent.once.Do(func() {
		ent.info = info
		ent.dropped = dropped
		close(ent.done)
	})
}

func (ent *entry) finished() bool {
	select {
	case <-ent.done:
		return true
	default:
		return false
	}
}

// Prefetcher is a pipeline.Prefetcher over a vfs.
type Prefetcher struct {
	fs     vfs.FS
	pool   *worker.Pool
	cache  *xsync.MapOf[string, *entry]
	logger log.Logger
}

// New returns a prefetcher running at most workers lookups at once. ctx bounds prefetching.
func New(ctx context.Context, fs vfs.FS, workers int, logger log.Logger) *Prefetcher {
	return &Prefetcher{
		fs:     fs,
		pool:   worker.NewPool(ctx, workers),
		cache:  xsync.NewMapOf[string, *entry](),
		logger: logger,
	}
}

// Prefetch starts looking up paths in the background.
func (prefetcher *Prefetcher) Prefetch(paths ...string) {
	for _, path := range paths {
		ent, loaded := prefetcher.cache.LoadOrStore(path, &entry{done: make(chan struct{}), queued: true})
		if loaded {
			continue
		}

		submitted := prefetcher.pool.Submit(func(_ context.Context) error {
			prefetcher.resolve(ent, path)
			return nil
		})

		if !submitted {
			prefetcher.drop(path, ent)
		}
	}
}

// Lookup returns the info for path, waiting for a prefetch in flight or resolving it directly.
// A prefetch abandoned by Close is resolved directly as well.
func (prefetcher *Prefetcher) Lookup(ctx context.Context, path string) pipeline.FileInfo {
	ent, loaded := prefetcher.cache.LoadOrStore(path, &entry{done: make(chan struct{})})
	if !loaded {
		prefetcher.resolve(ent, path)
	}

	select {
	case <-ent.done:
		if ent.dropped {
			return Detect(prefetcher.fs, path)
		}

		return ent.info
	case <-ctx.Done():
		return pipeline.FileInfo{Path: path, Err: errors.New(ctx.Err())}
	}
}

// Close stops prefetching and waits for the lookups in flight. Prefetches still waiting for a
// worker are abandoned, releasing their waiters.
func (prefetcher *Prefetcher) Close() error {
	prefetcher.pool.Stop()

	err := prefetcher.pool.Wait()

	prefetcher.cache.Range(func(path string, ent *entry) bool {
		if ent.queued && !ent.finished() {
			prefetcher.drop(path, ent)
		}

		return true
	})

	if err != nil && !errors.IsContextCanceled(err) {
		return err
	}

	return nil
}

func (prefetcher *Prefetcher) resolve(ent *entry, path string) {
	info := Detect(prefetcher.fs, path)

	if info.Err != nil {
		prefetcher.logger.Tracef("File info of %s: %v", path, info.Err)
	}

	ent.finish(info, false)
}

// drop forgets an entry the pool never resolved. Later lookups of path start over.
func (prefetcher *Prefetcher) drop(path string, ent *entry) {
	prefetcher.cache.Compute(path, func(current *entry, loaded bool) (*entry, bool) {
		return current, !loaded || current == ent
	})

	ent.finish(pipeline.FileInfo{Path: path}, true)
}

// Detect stats path and sniffs the content type of regular files.
func Detect(fs vfs.FS, path string) pipeline.FileInfo {
	info := pipeline.FileInfo{Path: path}

	stat, err := fs.Stat(path)
	if err != nil {
		info.Err = errors.New(err)
		return info
	}

	info.Size = stat.Size()

	if stat.IsDir() {
		info.IsDir = true
		info.ContentType = pipeline.DirectoryMimeType

		return info
	}

	if !stat.Mode().IsRegular() {
		return info
	}

	file, err := fs.Open(path)
	if err != nil {
		info.Err = errors.New(err)
		return info
	}
	defer file.Close() //nolint:errcheck

	mime, err := mimetype.DetectReader(file)
	if err != nil {
		info.Err = errors.New(err)
		return info
	}

	info.ContentType = BaseType(mime.String())

	return info
}

// BaseType strips parameters such as the charset from a content type.
func BaseType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(base)
}

// IsNotExist reports whether the lookup failed because the path does not exist.
func IsNotExist(info pipeline.FileInfo) bool {
	return info.Err != nil && errors.Is(info.Err, os.ErrNotExist)
}
