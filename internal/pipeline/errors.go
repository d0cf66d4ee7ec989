package pipeline

import (
	"fmt"

	"github.com/gruntwork-io/imgopen/internal/source"
)

// ResultsCompletedError is returned when output is appended to, or completion is requested on,
// Results that were already completed.
type ResultsCompletedError struct {
	Source string
}

func (err ResultsCompletedError) Error() string {
	return fmt.Sprintf("results for %s are already completed", err.Source)
}

// SessionFinishedError is returned when sources or openers are added to a finished session.
type SessionFinishedError struct {
	Session string
}

func (err SessionFinishedError) Error() string {
	return fmt.Sprintf("session %s is already finished", err.Session)
}

// UnknownSourceError is returned when results are set for a source that is not awaiting results in the session.
type UnknownSourceError struct {
	Session string
	Source  string
}

func (err UnknownSourceError) Error() string {
	return fmt.Sprintf("session %s is not awaiting results for %s", err.Session, err.Source)
}

// JobFinishedError is returned when a finished job is finished again or asked to stay open.
type JobFinishedError struct {
	Job string
}

func (err JobFinishedError) Error() string {
	return fmt.Sprintf("job %s is already finished", err.Job)
}

// UnbalancedLetCloseError is returned when LetClose is called more times than HoldOpen.
type UnbalancedLetCloseError struct {
	Job string
}

func (err UnbalancedLetCloseError) Error() string {
	return fmt.Sprintf("job %s: let close without hold open", err.Job)
}

// NoOpenerError is recorded for a source that no opener accepts.
type NoOpenerError struct {
	Source *source.Source
}

func (err NoOpenerError) Error() string {
	return fmt.Sprintf("no opener for %s %s", err.Source.Kind, err.Source)
}

// OpenerPanicError is recorded when an opener panics while opening a source.
type OpenerPanicError struct {
	Cause  error
	Opener string
	Source string
}

func (err OpenerPanicError) Error() string {
	return fmt.Sprintf("opener %s failed on %s: %v", err.Opener, err.Source, err.Cause)
}

func (err OpenerPanicError) Unwrap() error {
	return err.Cause
}

// UnsupportedPayloadError is returned when no opener handles any format of a pasted or dropped payload.
type UnsupportedPayloadError struct {
	Formats []string
}

func (err UnsupportedPayloadError) Error() string {
	return fmt.Sprintf("no opener for selection formats %v", err.Formats)
}
