package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/loop"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/vfs"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

type dispatchItem struct {
	session *Session
	source  *source.Source
}

// Job is the whole multi generation open started by one user action. It owns the dispatch queue
// and finishes once all its sessions finished and nobody holds it open.
//
// All methods must be called on the event loop.
type Job struct {
	ctx     context.Context
	cancel  context.CancelFunc
	loop    *loop.Loop
	cfg     *Config
	handler *Handler
	logger  log.Logger

	open   map[*Session]struct{}
	events events

	ID       string
	sessions []*Session
	queue    []dispatchItem

	keepOpen    int
	images      int
	dispatching bool
	finished    bool
}

// NewJob returns a job scheduling its work on lp. ctx bounds every operation of the job.
func NewJob(ctx context.Context, lp *loop.Loop, cfg *Config) *Job {
	ctx, cancel := context.WithCancel(ctx)

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	job := &Job{
		ctx:    ctx,
		cancel: cancel,
		loop:   lp,
		cfg:    cfg,
		open:   make(map[*Session]struct{}),
		ID:     uuid.NewString(),
	}

	job.logger = logger.WithField(log.FieldKeyJob, job.ID)
	job.handler = NewHandler(cfg)

	return job
}

func (job *Job) Context() context.Context {
	return job.ctx
}

func (job *Job) Config() *Config {
	return job.cfg
}

func (job *Job) Logger() log.Logger {
	return job.logger
}

// FS returns the filesystem openers read from.
func (job *Job) FS() vfs.FS {
	return job.cfg.FS
}

func (job *Job) Sessions() []*Session {
	return job.sessions
}

func (job *Job) Finished() bool {
	return job.finished
}

// Images returns the number of images opened so far.
func (job *Job) Images() int {
	return job.images
}

// NewSession creates and registers a session. Without explicit openers it uses the child openers of
// parent, or every registered opener for root sessions.
func (job *Job) NewSession(parent *Session, parentSource *source.Source, openers ...Opener) *Session {
	session := newSession(job, parent, parentSource)

	defaults := job.cfg.Registry.Openers()

	switch {
	case len(openers) > 0:
		session.openers = openers
	case parent != nil:
		session.openers = parent.childOpeners
	default:
		session.openers = defaults
	}

	session.childOpeners = defaults

	if parent != nil {
		parent.children = append(parent.children, session)
	}

	job.sessions = append(job.sessions, session)
	job.open[session] = struct{}{}

	// The handler must see the session before it leaves the open set, otherwise the job
	// could finish while the handler is still about to spawn children.
	session.OnFinished(job.handler.SessionFinished)
	session.OnFinished(job.sessionFinished)

	job.cfg.Telemeter.Count(job.ctx, "sessions_started", 1)
	session.logger.Debugf("New session at depth %d", session.depth)
	job.emitNewSession(session)

	return session
}

// Enqueue adds sources to session and queues them for dispatch, after everything queued before
// in the whole job. Sources the session already knows are not queued again.
func (job *Job) Enqueue(session *Session, srcs ...*source.Source) error {
	added, err := session.addSources(srcs...)
	if err != nil {
		return err
	}

	var paths []string

	for _, src := range added {
		job.queue = append(job.queue, dispatchItem{session: session, source: src})

		if src.Kind == source.KindFile && src.ContentType == "" {
			paths = append(paths, src.Path)
		}
	}

	if job.cfg.Prefetcher != nil && len(paths) > 0 {
		job.cfg.Prefetcher.Prefetch(paths...)
	}

	job.scheduleDispatch()

	// An empty session has nothing to wait for.
	session.checkFinished()

	return nil
}

// HoldOpen keeps the job from finishing until the matching LetClose.
func (job *Job) HoldOpen() error {
	if job.finished {
		return errors.New(JobFinishedError{Job: job.ID})
	}

	job.keepOpen++

	return nil
}

// LetClose drops a hold taken with HoldOpen and finishes the job if it is done.
func (job *Job) LetClose() error {
	if job.keepOpen == 0 {
		return errors.New(UnbalancedLetCloseError{Job: job.ID})
	}

	job.keepOpen--
	job.checkFinished()

	return nil
}

// Go runs work off the loop and resumes then on the loop, for openers completing res asynchronously.
// work gets a context cancelled once then runs or the job is torn down. A panic in either function
// fails res instead of crashing the loop.
func (job *Job) Go(res *Results, work func(ctx context.Context), then func()) {
	var cause error

	job.run(func(ctx context.Context) {
		cause = catch(func() { work(ctx) })
	}, func() {
		if cause == nil {
			cause = catch(then)
		}

		if cause != nil {
			job.failPanicked(res, cause)
		}
	})
}

// Close cancels every operation in flight. The job does not finish by itself after Close,
// the loop is expected to stop.
func (job *Job) Close() {
	job.cancel()
}

func (job *Job) run(work func(ctx context.Context), then func()) {
	ctx, cancel := context.WithCancel(job.ctx)

	job.loop.Go(func() {
		work(ctx)
	}, func() {
		cancel()
		then()
	})
}

// catch runs fn and returns its panic as an error.
func catch(fn func()) (cause error) {
	defer errors.Recover(func(err error) {
		cause = err
	})

	fn()

	return nil
}

func (job *Job) failPanicked(res *Results, cause error) {
	opener := ""
	if res.Opener() != nil {
		opener = res.Opener().Name()
	}

	err := errors.New(OpenerPanicError{Cause: cause, Opener: opener, Source: res.Source().String()})

	if res.Completed() {
		job.logger.Errorf("Open continuation panicked after completion: %v", err)
		return
	}

	if failErr := res.Fail(err); failErr != nil {
		job.logger.Errorf("Error recording failure: %v", failErr)
	}
}

func (job *Job) scheduleDispatch() {
	if job.dispatching || len(job.queue) == 0 {
		return
	}

	job.dispatching = true

	if !job.loop.PostIdle(job.dispatchNext) {
		job.dispatching = false
	}
}

// dispatchNext processes one queued source per loop tick, so a large burst never starves the loop.
// The next item is scheduled only once the handler invoked the opener, which keeps opener invocation
// in strict queue order even when a file info lookup is needed first.
func (job *Job) dispatchNext() {
	if len(job.queue) == 0 {
		job.dispatching = false
		return
	}

	item := job.queue[0]
	job.queue[0] = dispatchItem{}
	job.queue = job.queue[1:]

	job.cfg.Telemeter.Count(job.ctx, "sources_dispatched", 1)

	job.handler.Dispatch(job, item.session, item.source, func() {
		job.dispatching = false
		job.scheduleDispatch()
	})
}

func (job *Job) sessionFinished(session *Session) {
	job.emitSessionFinished(session)

	delete(job.open, session)
	job.checkFinished()
}

func (job *Job) checkFinished() {
	if job.finished || len(job.open) > 0 || job.keepOpen > 0 {
		return
	}

	if err := job.finish(); err != nil {
		job.logger.Errorf("Error finishing job: %v", err)
	}
}

func (job *Job) finish() error {
	if job.finished {
		return errors.New(JobFinishedError{Job: job.ID})
	}

	job.finished = true
	job.logger.Debugf("Job finished with %d sessions and %d images", len(job.sessions), job.images)

	job.emitFinished()
	job.cancel()

	return nil
}
