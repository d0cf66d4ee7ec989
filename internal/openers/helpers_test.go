package openers_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/imgopen/internal/loop"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

// openSource runs a single opener on src outside of any session and returns its completed results.
func openSource(t *testing.T, fs vfs.FS, opener pipeline.Opener, src *source.Source) *pipeline.Results {
	t.Helper()

	cfg := pipeline.NewConfig(pipeline.NewRegistry([]pipeline.Opener{opener}, nil))
	cfg.FS = fs
	cfg.Logger = log.Discard()

	lp := loop.New(log.Discard())
	job := pipeline.NewJob(context.Background(), lp, cfg)
	res := pipeline.NewResults(opener, src)

	var check func()
	check = func() {
		if res.Completed() {
			lp.Stop()
			return
		}

		time.AfterFunc(time.Millisecond, func() { lp.Post(check) })
	}

	lp.Post(func() {
		opener.Open(job, res, src)
		check()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, lp.Run(ctx), "opener did not complete")
	lp.Wait()

	return res
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))

	return buf.Bytes()
}

func sourcePaths(srcs []*source.Source) []string {
	paths := make([]string, 0, len(srcs))
	for _, src := range srcs {
		paths = append(paths, src.String())
	}

	return paths
}
