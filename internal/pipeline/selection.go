package pipeline

import (
	"context"

	"github.com/atotto/clipboard"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/source"
)

// TextFormat is the selection format clipboard text is offered in.
const TextFormat = "text/plain"

// Offer is one representation of pasted or dropped data.
type Offer struct {
	Format string
	Data   []byte
}

// Payload is everything a paste or drop offers, the same data in several formats.
type Payload []Offer

// Formats returns the offered format tokens.
func (payload Payload) Formats() []string {
	formats := make([]string, 0, len(payload))
	for _, offer := range payload {
		formats = append(formats, offer.Format)
	}

	return formats
}

// ClipboardReader returns the clipboard text. It blocks and is called off the loop.
type ClipboardReader func(ctx context.Context) (string, error)

// SystemClipboard reads the system clipboard.
func SystemClipboard(_ context.Context) (string, error) {
	return clipboard.ReadAll()
}

// SelectOffer returns the highest priority candidate handling one of the offered formats, with that offer.
func SelectOffer(payload Payload, candidates []Opener) (Opener, Offer, bool) {
	for i := len(candidates) - 1; i >= 0; i-- {
		filter := candidates[i].Filter()
		if !filter.AcceptsKind(source.KindSelection) {
			continue
		}

		for _, offer := range payload {
			if filter.MatchFormat(offer.Format) {
				return candidates[i], offer, true
			}
		}
	}

	return nil, Offer{}, false
}

// OpenSelection opens pasted or dropped data. origin, if any, is the source the data was dropped on and
// becomes the parent of what is opened.
func OpenSelection(job *Job, payload Payload, origin *source.Source) (*Session, error) {
	var selectionOpeners []Opener

	for _, opener := range job.cfg.Registry.Openers() {
		if opener.Filter().AcceptsKind(source.KindSelection) && len(opener.Filter().Formats) > 0 {
			selectionOpeners = append(selectionOpeners, opener)
		}
	}

	opener, offer, ok := SelectOffer(payload, selectionOpeners)
	if !ok {
		return nil, errors.New(UnsupportedPayloadError{Formats: payload.Formats()})
	}

	src := source.NewSelection(offer.Format, offer.Data, origin)
	if origin == nil {
		src.Logger = job.logger
	} else {
		src.LinkParent()
	}

	session := job.NewSession(nil, origin, opener)
	if err := job.Enqueue(session, src); err != nil {
		return nil, err
	}

	return session, nil
}

// OpenClipboard reads the clipboard text with read and opens it as a text selection.
// The job is held open while the read is in flight.
func OpenClipboard(job *Job, read ClipboardReader, origin *source.Source) error {
	if read == nil {
		read = SystemClipboard
	}

	if err := job.HoldOpen(); err != nil {
		return err
	}

	var (
		text    string
		readErr error
	)

	job.run(func(ctx context.Context) {
		text, readErr = read(ctx)
	}, func() {
		defer func() {
			if err := job.LetClose(); err != nil {
				job.logger.Errorf("Error releasing job: %v", err)
			}
		}()

		if readErr != nil {
			job.logger.Warnf("Error reading clipboard: %v", readErr)
			return
		}

		if text == "" {
			job.logger.Infof("Clipboard is empty")
			return
		}

		if _, err := OpenSelection(job, Payload{{Format: TextFormat, Data: []byte(text)}}, origin); err != nil {
			job.logger.Warnf("Error opening clipboard: %v", err)
		}
	})

	return nil
}
