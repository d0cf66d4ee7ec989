package pipeline

import (
	"context"
	"path/filepath"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

// DirectoryMimeType is the content type of directories, the only input of a sibling search.
const DirectoryMimeType = "inode/directory"

// Handler decides how sources are opened and what happens once a session finished:
// linking the ownership graph, publishing images, recursing or searching siblings.
type Handler struct {
	cfg *Config
}

func NewHandler(cfg *Config) *Handler {
	return &Handler{cfg: cfg}
}

// Dispatch looks up the opener for src and invokes it. next is called exactly once, as soon as the
// opener was invoked, and lets the job move to the next queued source.
func (handler *Handler) Dispatch(job *Job, session *Session, src *source.Source, next func()) {
	if src.Kind != source.KindFile || src.ContentType != "" || handler.cfg.Prefetcher == nil {
		handler.open(job, session, src)
		next()

		return
	}

	var info FileInfo

	job.run(func(ctx context.Context) {
		info = handler.cfg.Prefetcher.Lookup(ctx, src.Path)
	}, func() {
		defer next()

		job.emitFileInfo(src, info)

		if info.Err != nil {
			handler.fail(session, src, info.Err)
			return
		}

		src.ContentType = info.ContentType
		handler.open(job, session, src)
	})
}

func (handler *Handler) open(job *Job, session *Session, src *source.Source) {
	opener := handler.cfg.Registry.Lookup(src, session.Openers())
	if opener == nil {
		handler.fail(session, src, errors.New(NoOpenerError{Source: src}))
		return
	}

	res := NewResults(opener, src)
	if err := session.SetSourceResults(src, res); err != nil {
		session.logger.Errorf("Error dispatching %s: %v", src, err)
		return
	}

	session.logger.WithField(log.FieldKeyOpener, opener.Name()).Tracef("Opening %s", src)

	if cause := catch(func() { opener.Open(job, res, src) }); cause != nil {
		job.failPanicked(res, cause)
	}
}

func (handler *Handler) fail(session *Session, src *source.Source, err error) {
	res := NewResults(nil, src)
	_ = res.AddError(err)
	_ = res.Complete()

	if setErr := session.SetSourceResults(src, res); setErr != nil {
		session.logger.Errorf("Error dispatching %s: %v", src, setErr)
	}
}

// SessionFinished consumes the output of a finished session.
func (handler *Handler) SessionFinished(session *Session) {
	job := session.job
	subs, images, errs := session.gather()

	handler.report(session, errs)

	subs, excluded := handler.excludeSiblings(session, subs)

	// Link first: the holds taken when the sources were added are released last, so nothing
	// gets cleaned while its ownership is being established.
	for _, src := range session.sources {
		res := session.results[src]
		if res == nil {
			continue
		}

		for _, sub := range res.Sources() {
			sub.LinkParent()
		}

		for _, img := range res.Images() {
			img.Attach()
		}
	}

	for _, sub := range excluded {
		sub.CheckCleanup()
	}

	job.images += len(images)
	job.cfg.Telemeter.Count(job.ctx, "images_opened", int64(len(images)))

	if len(images) > 0 {
		if handler.cfg.Memory != nil {
			handler.cfg.Memory.Observe(images...)
		}

		if handler.cfg.Album != nil {
			handler.cfg.Album.Extend(images...)
		}
	}

	switch {
	case session.searchSiblings && len(images) > 0 && len(subs) == 0:
		handler.searchSiblings(session, images)
	case len(subs) > 0:
		handler.recurse(session, subs)
	}

	for _, src := range session.sources {
		src.Release()
	}
}

func (handler *Handler) report(session *Session, errs []error) {
	if len(errs) == 0 {
		return
	}

	session.job.cfg.Telemeter.Count(session.job.ctx, "open_errors", int64(len(errs)))

	multiErr := new(errors.MultiError).Append(errs...)

	// Unsupported files inside directories and archives are routine, only explicit input is worth a warning.
	level := log.WarnLevel
	if session.depth > 0 {
		level = log.DebugLevel
	}

	session.logger.Logf(level, "Errors opening %d sources: %v", multiErr.Len(), multiErr)
}

// excludeSiblings splits off listing entries resembling the files that triggered the sibling search,
// they are already open.
func (handler *Handler) excludeSiblings(session *Session, subs []*source.Source) (kept, excluded []*source.Source) {
	if len(session.siblingExcludes) == 0 {
		return subs, nil
	}

	for _, sub := range subs {
		isExcluded := false

		for _, exclude := range session.siblingExcludes {
			if sub.Resembles(exclude) {
				isExcluded = true
				break
			}
		}

		if isExcluded {
			excluded = append(excluded, sub)
			continue
		}

		kept = append(kept, sub)
	}

	return kept, excluded
}

func (handler *Handler) recurse(session *Session, subs []*source.Source) {
	job := session.job
	childDepth := session.depth + 1

	if !handler.cfg.withinThresholds(len(subs), childDepth, job.images) {
		session.logger.Infof("Not opening %d sources at depth %d, limits exceeded", len(subs), childDepth)

		for _, sub := range subs {
			sub.CheckCleanup()
		}

		return
	}

	// One child session per parent source keeps the tree mirroring the ownership graph.
	var order []*source.Source

	byParent := make(map[*source.Source][]*source.Source)

	for _, sub := range subs {
		parent := sub.Parent()
		if _, ok := byParent[parent]; !ok {
			order = append(order, parent)
		}

		byParent[parent] = append(byParent[parent], sub)
	}

	for _, parent := range order {
		child := job.NewSession(session, parent)
		if err := job.Enqueue(child, byParent[parent]...); err != nil {
			session.logger.Errorf("Error enqueuing sources: %v", err)
		}
	}
}

// searchSiblings opens the directories of the files that yielded images, so that opening one photo
// browses its folder.
func (handler *Handler) searchSiblings(session *Session, images []*source.Image) {
	job := session.job

	var triggers, dirs []*source.Source

	for _, img := range images {
		src := img.Source()
		if src.Kind != source.KindFile {
			continue
		}

		triggers = append(triggers, src)

		dir := source.NewFile(filepath.Dir(src.Path), nil)
		dir.ContentType = DirectoryMimeType
		dir.Logger = src.Logger

		duplicate := false

		for _, known := range dirs {
			if known.Resembles(dir) {
				duplicate = true
				break
			}
		}

		if !duplicate {
			dirs = append(dirs, dir)
		}
	}

	if len(dirs) == 0 || handler.cfg.SiblingOpener == nil {
		return
	}

	if !handler.cfg.withinThresholds(len(dirs), session.depth+1, job.images) {
		session.logger.Infof("Not searching siblings of %d files, limits exceeded", len(triggers))
		return
	}

	child := job.NewSession(session, nil, handler.cfg.SiblingOpener)
	child.childOpeners = session.openers
	child.siblingExcludes = triggers

	if err := job.Enqueue(child, dirs...); err != nil {
		session.logger.Errorf("Error enqueuing sibling search: %v", err)
	}
}
