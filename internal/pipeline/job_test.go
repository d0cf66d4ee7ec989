package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/loop"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
)

func TestDispatchIsFIFOAcrossSessions(t *testing.T) {
	t.Parallel()

	delays := map[string]time.Duration{
		"a.png": 60 * time.Millisecond,
		"b.png": 0,
		"c.png": 20 * time.Millisecond,
	}

	var completed []string

	opener := imageOpener(".png")
	opener.open = func(job *pipeline.Job, res *pipeline.Results, src *source.Source) {
		job.Go(res, func(_ context.Context) {
			time.Sleep(delays[src.Name])
		}, func() {
			completed = append(completed, src.Name)
			_ = res.Complete()
		})
	}

	cfg, _ := newConfig([]pipeline.Opener{opener})
	cfg.SearchSiblings = false

	runJob(t, cfg, func(_ *loop.Loop, job *pipeline.Job) {
		first := job.NewSession(nil, nil)
		second := job.NewSession(nil, nil)

		assert.NoError(t, job.Enqueue(first, source.NewFile("/in/a.png", nil)))
		assert.NoError(t, job.Enqueue(second, source.NewFile("/in/b.png", nil)))
		assert.NoError(t, job.Enqueue(first, source.NewFile("/in/c.png", nil)))
	})

	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, opener.callNames())
	assert.ElementsMatch(t, []string{"a.png", "b.png", "c.png"}, completed)
	assert.NotEqual(t, "a.png", completed[0])
}

func TestSessionsFinishOnceAfterAllResultsCompleted(t *testing.T) {
	t.Parallel()

	opener := imageOpener(".png")
	opener.open = func(job *pipeline.Job, res *pipeline.Results, src *source.Source) {
		job.Go(res, func(_ context.Context) {
			time.Sleep(5 * time.Millisecond)
		}, func() {
			_ = res.AddImage(source.NewImage(src, "png", 1, 1, 0))
			_ = res.Complete()
		})
	}

	cfg, col := newConfig([]pipeline.Opener{opener, directoryOpener("/in/d/x.png", "/in/d/y.png")})

	finishes := make(map[*pipeline.Session]int)

	job := runJob(t, cfg, func(_ *loop.Loop, job *pipeline.Job) {
		job.OnSessionFinished(func(session *pipeline.Session) {
			finishes[session]++

			for _, src := range session.Sources() {
				res := session.Results(src)
				if assert.NotNil(t, res) {
					assert.True(t, res.Completed())
				}
			}
		})

		dir := source.NewFile("/in/d", nil)
		dir.ContentType = pipeline.DirectoryMimeType

		root := job.NewSession(nil, nil)
		assert.NoError(t, job.Enqueue(root, source.NewFile("/in/a.png", nil), dir))
	})

	require.Len(t, job.Sessions(), 2)

	for _, session := range job.Sessions() {
		assert.Equal(t, 1, finishes[session])
		assert.True(t, session.Finished())
	}

	assert.Len(t, col.album, 3)
	assert.Equal(t, 3, job.Images())
}

func TestJobFinishesOnceAfterKeepOpenReleased(t *testing.T) {
	t.Parallel()

	cfg, _ := newConfig([]pipeline.Opener{imageOpener(".png")})

	finished := 0

	job := runJob(t, cfg, func(lp *loop.Loop, job *pipeline.Job) {
		job.OnFinished(func(*pipeline.Job) {
			finished++
		})

		assert.NoError(t, job.HoldOpen())

		job.OnSessionFinished(func(session *pipeline.Session) {
			assert.False(t, job.Finished())

			time.AfterFunc(20*time.Millisecond, func() {
				lp.Post(func() {
					assert.False(t, job.Finished())
					assert.NoError(t, job.LetClose())
					assert.True(t, job.Finished())
				})
			})
		})

		_, err := pipeline.Start(job, []string{"/in/a.png"}, nil)
		assert.NoError(t, err)
	})

	assert.True(t, job.Finished())
	assert.Equal(t, 1, finished)
}

func TestEmptySessionFinishes(t *testing.T) {
	t.Parallel()

	cfg, _ := newConfig(nil)

	job := runJob(t, cfg, func(_ *loop.Loop, job *pipeline.Job) {
		_, err := pipeline.Start(job, nil, nil)
		assert.NoError(t, err)
	})

	require.Len(t, job.Sessions(), 1)
	assert.True(t, job.Sessions()[0].Finished())
}

func TestEnqueueSkipsSourcesAlreadyInSession(t *testing.T) {
	t.Parallel()

	opener := imageOpener(".png")

	cfg, col := newConfig([]pipeline.Opener{opener})
	cfg.SearchSiblings = false

	job := runJob(t, cfg, func(_ *loop.Loop, job *pipeline.Job) {
		src := source.NewFile("/in/a.png", nil)
		session := job.NewSession(nil, nil)

		assert.NoError(t, job.Enqueue(session, src, src))
		assert.NoError(t, job.Enqueue(session, src))
	})

	assert.Equal(t, []string{"a.png"}, opener.callNames())
	require.Len(t, job.Sessions(), 1)
	assert.Len(t, job.Sessions()[0].Sources(), 1)
	assert.True(t, job.Sessions()[0].Finished())
	assert.Len(t, col.album, 1)
}

func TestSyncPanicIsRecordedAsError(t *testing.T) {
	t.Parallel()

	opener := imageOpener(".png")
	imageOpen := opener.open
	opener.open = func(job *pipeline.Job, res *pipeline.Results, src *source.Source) {
		if src.Name == "b.png" {
			panic("corrupt header")
		}

		imageOpen(job, res, src)
	}

	cfg, col := newConfig([]pipeline.Opener{opener})

	job := runJob(t, cfg, func(_ *loop.Loop, job *pipeline.Job) {
		_, err := pipeline.Start(job, []string{"/in/a.png", "/in/b.png", "/in/c.png"}, nil)
		assert.NoError(t, err)
	})

	root := job.Sessions()[0]
	srcs := root.Sources()
	require.Len(t, srcs, 3)

	for _, src := range []*source.Source{srcs[0], srcs[2]} {
		res := root.Results(src)
		assert.True(t, res.Completed())
		assert.Len(t, res.Images(), 1)
		assert.Empty(t, res.Errors())
	}

	res := root.Results(srcs[1])
	assert.True(t, res.Completed())
	assert.Empty(t, res.Images())
	require.Len(t, res.Errors(), 1)

	var panicErr pipeline.OpenerPanicError
	require.True(t, errors.As(res.Errors()[0], &panicErr))
	assert.Equal(t, "image", panicErr.Opener)
	assert.Contains(t, panicErr.Error(), "corrupt header")

	assert.Len(t, col.album, 2)
}

func TestAsyncPanicIsRecordedAsError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		work func(ctx context.Context)
		then func()
	}{
		{name: "work", work: func(context.Context) { panic("read failed") }, then: func() {}},
		{name: "continuation", work: func(context.Context) {}, then: func() { panic("decode failed") }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opener := imageOpener(".png")
			opener.open = func(job *pipeline.Job, res *pipeline.Results, _ *source.Source) {
				job.Go(res, tc.work, tc.then)
			}

			cfg, _ := newConfig([]pipeline.Opener{opener})

			job := runJob(t, cfg, func(_ *loop.Loop, job *pipeline.Job) {
				_, err := pipeline.Start(job, []string{"/in/a.png"}, nil)
				assert.NoError(t, err)
			})

			root := job.Sessions()[0]
			res := root.Results(root.Sources()[0])
			assert.True(t, res.Completed())
			assert.Len(t, res.Errors(), 1)
		})
	}
}

func TestOperationContextIsCancelledOnResume(t *testing.T) {
	t.Parallel()

	var opCtx context.Context

	opener := imageOpener(".png")
	opener.open = func(job *pipeline.Job, res *pipeline.Results, _ *source.Source) {
		job.Go(res, func(ctx context.Context) {
			opCtx = ctx
		}, func() {
			_ = res.Complete()
		})
	}

	cfg, _ := newConfig([]pipeline.Opener{opener})

	runJob(t, cfg, func(_ *loop.Loop, job *pipeline.Job) {
		_, err := pipeline.Start(job, []string{"/in/a.png"}, nil)
		assert.NoError(t, err)
	})

	require.NotNil(t, opCtx)
	require.ErrorIs(t, opCtx.Err(), context.Canceled)
}

func TestJobEvents(t *testing.T) {
	t.Parallel()

	cfg, _ := newConfig([]pipeline.Opener{imageOpener(".png")})
	cfg.SearchSiblings = false

	var newSessions, opened int

	runJob(t, cfg, func(_ *loop.Loop, job *pipeline.Job) {
		job.OnNewSession(func(*pipeline.Session) { newSessions++ })
		job.OnOpened(func(*pipeline.Results) { opened++ })

		_, err := pipeline.Start(job, []string{"/in/a.png", "/in/b.png"}, nil)
		assert.NoError(t, err)
	})

	assert.Equal(t, 1, newSessions)
	assert.Equal(t, 2, opened)
}
