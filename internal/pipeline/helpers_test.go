package pipeline_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/imgopen/internal/loop"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

type testOpener struct {
	open   func(job *pipeline.Job, res *pipeline.Results, src *source.Source)
	name   string
	filter pipeline.Filter
	calls  []*source.Source
}

func (opener *testOpener) Name() string            { return opener.name }
func (opener *testOpener) Filter() pipeline.Filter { return opener.filter }

func (opener *testOpener) Open(job *pipeline.Job, res *pipeline.Results, src *source.Source) {
	opener.calls = append(opener.calls, src)

	if opener.open != nil {
		opener.open(job, res, src)
		return
	}

	_ = res.Complete()
}

func (opener *testOpener) callNames() []string {
	names := make([]string, 0, len(opener.calls))
	for _, src := range opener.calls {
		names = append(names, src.Name)
	}

	return names
}

func imageOpener(exts ...string) *testOpener {
	return &testOpener{
		name:   "image",
		filter: pipeline.Filter{Kinds: []source.Kind{source.KindFile}, Extensions: exts},
		open: func(_ *pipeline.Job, res *pipeline.Results, src *source.Source) {
			_ = res.AddImage(source.NewImage(src, "png", 1, 1, 0))
			_ = res.Complete()
		},
	}
}

func directoryOpener(entries ...string) *testOpener {
	return &testOpener{
		name:   "directory",
		filter: pipeline.Filter{Kinds: []source.Kind{source.KindFile}, MimeTypes: []string{pipeline.DirectoryMimeType}},
		open: func(_ *pipeline.Job, res *pipeline.Results, _ *source.Source) {
			for _, entry := range entries {
				_, _ = res.AddFile(entry)
			}

			_ = res.Complete()
		},
	}
}

// testGuesser matches every declared filter field against the source.
type testGuesser struct {
	fallback pipeline.Opener
}

func (guesser *testGuesser) Name() string { return "test" }

func (guesser *testGuesser) Kinds() []source.Kind {
	return []source.Kind{source.KindFile, source.KindURI, source.KindSelection}
}

func (guesser *testGuesser) Fallback() pipeline.Opener { return guesser.fallback }

func (guesser *testGuesser) Guess(src *source.Source, candidates []pipeline.Opener) pipeline.Opener {
	scheme := ""
	if parsed, err := url.Parse(src.URI); err == nil {
		scheme = parsed.Scheme
	}

	return pipeline.FirstMatch(candidates, func(filter pipeline.Filter) bool {
		return filter.MatchMimeType(src.ContentType) ||
			filter.MatchExtension(src.Name) ||
			filter.MatchFormat(src.Format) ||
			filter.MatchScheme(scheme)
	})
}

type collector struct {
	observed []*source.Image
	album    []*source.Image
}

func (col *collector) Observe(images ...*source.Image) { col.observed = append(col.observed, images...) }
func (col *collector) Extend(images ...*source.Image)  { col.album = append(col.album, images...) }

func newConfig(openers []pipeline.Opener, guessers ...pipeline.Guesser) (*pipeline.Config, *collector) {
	if len(guessers) == 0 {
		guessers = []pipeline.Guesser{&testGuesser{}}
	}

	col := &collector{}

	cfg := pipeline.NewConfig(pipeline.NewRegistry(openers, guessers))
	cfg.FS = vfs.NewMemMapFS()
	cfg.Logger = log.Discard()
	cfg.Memory = col
	cfg.Album = col

	return cfg, col
}

// runJob runs a job on a fresh loop until it finishes.
func runJob(t *testing.T, cfg *pipeline.Config, start func(lp *loop.Loop, job *pipeline.Job)) *pipeline.Job {
	t.Helper()

	lp := loop.New(log.Discard())
	job := pipeline.NewJob(context.Background(), lp, cfg)
	job.OnFinished(func(*pipeline.Job) { lp.Stop() })

	lp.Post(func() { start(lp, job) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, lp.Run(ctx), "job did not finish")
	lp.Wait()

	return job
}

func names(srcs []*source.Source) []string {
	out := make([]string, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, src.Name)
	}

	return out
}
