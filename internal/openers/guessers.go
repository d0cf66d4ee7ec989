package openers

import (
	"net/url"
	"path"

	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
)

// MimeGuesser matches the content type the prefetcher sniffed for a file.
type MimeGuesser struct{}

func NewMimeGuesser() *MimeGuesser {
	return &MimeGuesser{}
}

func (guesser *MimeGuesser) Name() string              { return "mime" }
func (guesser *MimeGuesser) Kinds() []source.Kind      { return []source.Kind{source.KindFile} }
func (guesser *MimeGuesser) Fallback() pipeline.Opener { return nil }

func (guesser *MimeGuesser) Guess(src *source.Source, candidates []pipeline.Opener) pipeline.Opener {
	return pipeline.FirstMatch(candidates, func(filter pipeline.Filter) bool {
		return filter.MatchMimeType(src.ContentType)
	})
}

// ExtensionGuesser matches file names, for files whose content was not recognized.
type ExtensionGuesser struct{}

func NewExtensionGuesser() *ExtensionGuesser {
	return &ExtensionGuesser{}
}

func (guesser *ExtensionGuesser) Name() string              { return "extension" }
func (guesser *ExtensionGuesser) Kinds() []source.Kind      { return []source.Kind{source.KindFile} }
func (guesser *ExtensionGuesser) Fallback() pipeline.Opener { return nil }

func (guesser *ExtensionGuesser) Guess(src *source.Source, candidates []pipeline.Opener) pipeline.Opener {
	return pipeline.FirstMatch(candidates, func(filter pipeline.Filter) bool {
		return filter.MatchExtension(src.Name)
	})
}

// URIGuesser matches the scheme, then the extension of the uri path. URIs nothing claims are downloaded.
type URIGuesser struct {
	fallback pipeline.Opener
}

func NewURIGuesser(fallback pipeline.Opener) *URIGuesser {
	return &URIGuesser{fallback: fallback}
}

func (guesser *URIGuesser) Name() string              { return "uri" }
func (guesser *URIGuesser) Kinds() []source.Kind      { return []source.Kind{source.KindURI} }
func (guesser *URIGuesser) Fallback() pipeline.Opener { return guesser.fallback }

func (guesser *URIGuesser) Guess(src *source.Source, candidates []pipeline.Opener) pipeline.Opener {
	parsed, err := url.Parse(src.URI)
	if err != nil {
		return nil
	}

	if opener := pipeline.FirstMatch(candidates, func(filter pipeline.Filter) bool {
		return filter.MatchScheme(parsed.Scheme)
	}); opener != nil {
		return opener
	}

	return pipeline.FirstMatch(candidates, func(filter pipeline.Filter) bool {
		return filter.MatchExtension(path.Base(parsed.Path))
	})
}

// SelectionGuesser matches the format token of pasted or dropped data.
type SelectionGuesser struct{}

func NewSelectionGuesser() *SelectionGuesser {
	return &SelectionGuesser{}
}

func (guesser *SelectionGuesser) Name() string              { return "selection" }
func (guesser *SelectionGuesser) Kinds() []source.Kind      { return []source.Kind{source.KindSelection} }
func (guesser *SelectionGuesser) Fallback() pipeline.Opener { return nil }

func (guesser *SelectionGuesser) Guess(src *source.Source, candidates []pipeline.Opener) pipeline.Opener {
	return pipeline.FirstMatch(candidates, func(filter pipeline.Filter) bool {
		return filter.MatchFormat(src.Format)
	})
}
