package pipeline

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

// Session is one generation of sources opened together. It finishes once every added source
// has results and all of them are completed.
type Session struct {
	job          *Job
	parent       *Session
	parentSource *source.Source
	logger       log.Logger

	results    map[*source.Source]*Results
	lacking    map[*source.Source]struct{}
	incomplete map[*Results]struct{}
	onFinished []func(session *Session)

	ID       string
	children []*Session
	sources  []*source.Source

	openers      []Opener
	childOpeners []Opener
	// siblingExcludes are dropped from the listing produced by a sibling search.
	siblingExcludes []*source.Source

	depth          int
	finished       bool
	searchSiblings bool
}

func newSession(job *Job, parent *Session, parentSource *source.Source) *Session {
	session := &Session{
		job:          job,
		parent:       parent,
		parentSource: parentSource,
		results:      make(map[*source.Source]*Results),
		lacking:      make(map[*source.Source]struct{}),
		incomplete:   make(map[*Results]struct{}),
		ID:           uuid.NewString(),
	}

	session.depth = session.computeDepth()
	session.logger = job.logger.WithField(log.FieldKeySession, session.ID)

	return session
}

// computeDepth walks the parent chain. A session showing up twice in its own ancestry is a
// programming error.
func (session *Session) computeDepth() int {
	seen := map[*Session]struct{}{session: {}}
	depth := 0

	for ancestor := session.parent; ancestor != nil; ancestor = ancestor.parent {
		if _, ok := seen[ancestor]; ok {
			panic(fmt.Sprintf("session %s is its own ancestor", ancestor.ID))
		}

		seen[ancestor] = struct{}{}
		depth++
	}

	return depth
}

func (session *Session) Job() *Job {
	return session.job
}

func (session *Session) Parent() *Session {
	return session.parent
}

// ParentSource is the source whose results spawned this session, nil for root and sibling sessions.
func (session *Session) ParentSource() *source.Source {
	return session.parentSource
}

func (session *Session) Children() []*Session {
	return session.children
}

// Depth is the number of ancestors.
func (session *Session) Depth() int {
	return session.depth
}

func (session *Session) Finished() bool {
	return session.finished
}

func (session *Session) SearchSiblings() bool {
	return session.searchSiblings
}

// Sources returns the added sources in addition order.
func (session *Session) Sources() []*source.Source {
	return session.sources
}

// Results returns the results set for src, nil if it has not been dispatched yet.
func (session *Session) Results(src *source.Source) *Results {
	return session.results[src]
}

// Openers returns the openers applicable to the sources of this session.
func (session *Session) Openers() []Opener {
	return session.openers
}

// ChildOpeners returns the openers handed to sessions spawned from this one.
func (session *Session) ChildOpeners() []Opener {
	return session.childOpeners
}

// AddSources registers sources awaiting results and holds them until the handler consumed the session.
// Sources already part of the session are ignored.
func (session *Session) AddSources(srcs ...*source.Source) error {
	_, err := session.addSources(srcs...)
	return err
}

// addSources returns the sources actually added, in order.
func (session *Session) addSources(srcs ...*source.Source) ([]*source.Source, error) {
	if session.finished {
		return nil, errors.New(SessionFinishedError{Session: session.ID})
	}

	added := make([]*source.Source, 0, len(srcs))

	for _, src := range srcs {
		if _, ok := session.lacking[src]; ok {
			continue
		}

		if _, ok := session.results[src]; ok {
			continue
		}

		src.Hold()
		session.lacking[src] = struct{}{}
		session.sources = append(session.sources, src)
		added = append(added, src)
	}

	return added, nil
}

// AddOpeners appends openers applicable to this session, ignoring ones already present.
func (session *Session) AddOpeners(openers ...Opener) error {
	if session.finished {
		return errors.New(SessionFinishedError{Session: session.ID})
	}

	for _, opener := range openers {
		if !slices.Contains(session.openers, opener) {
			session.openers = append(session.openers, opener)
		}
	}

	return nil
}

// SetChildOpeners replaces the openers inherited by sessions spawned from this one.
func (session *Session) SetChildOpeners(openers ...Opener) error {
	if session.finished {
		return errors.New(SessionFinishedError{Session: session.ID})
	}

	session.childOpeners = slices.Clone(openers)

	return nil
}

// SetSourceResults records the results an open attempt of src will fill.
func (session *Session) SetSourceResults(src *source.Source, res *Results) error {
	if session.finished {
		return errors.New(SessionFinishedError{Session: session.ID})
	}

	if _, ok := session.lacking[src]; !ok {
		return errors.New(UnknownSourceError{Session: session.ID, Source: src.String()})
	}

	delete(session.lacking, src)
	session.results[src] = res

	if !res.Completed() {
		session.incomplete[res] = struct{}{}
		res.subscribe(session.resultsCompleted)
	} else {
		session.job.emitOpened(res)
	}

	session.checkFinished()

	return nil
}

// OnFinished subscribes to the session finishing.
func (session *Session) OnFinished(fn func(session *Session)) {
	session.onFinished = append(session.onFinished, fn)
}

func (session *Session) resultsCompleted(res *Results) {
	delete(session.incomplete, res)

	session.job.emitOpened(res)
	session.checkFinished()
}

func (session *Session) checkFinished() {
	if session.finished || len(session.lacking) > 0 || len(session.incomplete) > 0 {
		return
	}

	session.finished = true
	session.logger.Debugf("Session finished with %d sources", len(session.sources))

	for _, fn := range session.onFinished {
		fn(session)
	}
}

// gather splits the session output into sub-sources, images and errors, in source order.
func (session *Session) gather() ([]*source.Source, []*source.Image, []error) {
	var (
		subs   []*source.Source
		images []*source.Image
		errs   []error
	)

	for _, src := range session.sources {
		res := session.results[src]
		if res == nil {
			continue
		}

		subs = append(subs, res.Sources()...)
		images = append(images, res.Images()...)
		errs = append(errs, res.Errors()...)
	}

	return subs, images, errs
}
