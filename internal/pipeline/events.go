package pipeline

import "github.com/gruntwork-io/imgopen/internal/source"

// events holds the job subscribers. Handlers run on the event loop in subscription order.
type events struct {
	newSession      []func(session *Session)
	sessionFinished []func(session *Session)
	opened          []func(res *Results)
	finished        []func(job *Job)
	fileInfo        []func(src *source.Source, info FileInfo)
}

// OnNewSession is called for every session created in the job, including the root one.
func (job *Job) OnNewSession(fn func(session *Session)) {
	job.events.newSession = append(job.events.newSession, fn)
}

// OnSessionFinished is called after the handler processed a finished session.
func (job *Job) OnSessionFinished(fn func(session *Session)) {
	job.events.sessionFinished = append(job.events.sessionFinished, fn)
}

// OnOpened is called for every completed open attempt, successful or not.
func (job *Job) OnOpened(fn func(res *Results)) {
	job.events.opened = append(job.events.opened, fn)
}

// OnFinished is called once when the whole job is done.
func (job *Job) OnFinished(fn func(job *Job)) {
	job.events.finished = append(job.events.finished, fn)
}

// OnFileInfo is called when metadata for a file source was prefetched.
func (job *Job) OnFileInfo(fn func(src *source.Source, info FileInfo)) {
	job.events.fileInfo = append(job.events.fileInfo, fn)
}

func (job *Job) emitNewSession(session *Session) {
	for _, fn := range job.events.newSession {
		fn(session)
	}
}

func (job *Job) emitSessionFinished(session *Session) {
	for _, fn := range job.events.sessionFinished {
		fn(session)
	}
}

func (job *Job) emitOpened(res *Results) {
	for _, fn := range job.events.opened {
		fn(res)
	}
}

func (job *Job) emitFinished() {
	for _, fn := range job.events.finished {
		fn(job)
	}
}

func (job *Job) emitFileInfo(src *source.Source, info FileInfo) {
	for _, fn := range job.events.fileInfo {
		fn(src, info)
	}
}
