package pipeline

import (
	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/source"
)

// Results accumulates the outcome of one open attempt: images, further sources to open and errors.
// It is completed exactly once, either synchronously from Opener.Open or later from an async continuation,
// after which it is immutable.
type Results struct {
	opener     Opener
	source     *source.Source
	onComplete func(res *Results)
	images     []*source.Image
	sources    []*source.Source
	errs       []error
	completed  bool
}

// NewResults returns empty results for opening src with opener. The opener may be nil when none matched.
func NewResults(opener Opener, src *source.Source) *Results {
	return &Results{
		opener: opener,
		source: src,
	}
}

// Opener returns the opener the results belong to.
func (res *Results) Opener() Opener {
	return res.opener
}

// Source returns the source being opened.
func (res *Results) Source() *source.Source {
	return res.source
}

// AddImage appends a decoded image.
func (res *Results) AddImage(img *source.Image) error {
	if err := res.checkOpen(); err != nil {
		return err
	}

	res.images = append(res.images, img)

	return nil
}

// AddSource appends a discovered source to open next.
func (res *Results) AddSource(src *source.Source) error {
	if err := res.checkOpen(); err != nil {
		return err
	}

	res.sources = append(res.sources, src)

	return nil
}

// AddFile is a shortcut appending a file source discovered inside the source being opened.
func (res *Results) AddFile(path string) (*source.Source, error) {
	src := source.NewFile(path, res.source)
	return src, res.AddSource(src)
}

// AddURI is a shortcut appending a uri source discovered inside the source being opened.
func (res *Results) AddURI(uri string) (*source.Source, error) {
	src := source.NewURI(uri, res.source)
	return src, res.AddSource(src)
}

// AddError records a failure. Errors are data, they never abort the pipeline.
func (res *Results) AddError(err error) error {
	if err == nil {
		return nil
	}

	if checkErr := res.checkOpen(); checkErr != nil {
		return checkErr
	}

	res.errs = append(res.errs, err)

	return nil
}

// Complete marks the results as final and notifies the subscriber. Completing twice fails
// without notifying again.
func (res *Results) Complete() error {
	if err := res.checkOpen(); err != nil {
		return err
	}

	res.completed = true

	if res.onComplete != nil {
		res.onComplete(res)
	}

	return nil
}

// Fail records err and completes the results, the common tail of a failed open.
func (res *Results) Fail(err error) error {
	if addErr := res.AddError(err); addErr != nil {
		return addErr
	}

	return res.Complete()
}

// Completed reports whether Complete was called.
func (res *Results) Completed() bool {
	return res.completed
}

func (res *Results) Images() []*source.Image {
	return res.images
}

func (res *Results) Sources() []*source.Source {
	return res.sources
}

func (res *Results) Errors() []error {
	return res.errs
}

// HasOutput reports whether the open produced images or sources.
func (res *Results) HasOutput() bool {
	return len(res.images) > 0 || len(res.sources) > 0
}

// Empty reports whether nothing at all, not even an error, was recorded.
func (res *Results) Empty() bool {
	return !res.HasOutput() && len(res.errs) == 0
}

func (res *Results) subscribe(fn func(res *Results)) {
	res.onComplete = fn
}

func (res *Results) checkOpen() error {
	if res.completed {
		return errors.New(ResultsCompletedError{Source: res.source.String()})
	}

	return nil
}
