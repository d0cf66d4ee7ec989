package pipeline

import (
	"path"
	"slices"
	"strings"

	"github.com/gruntwork-io/imgopen/internal/source"
)

// Opener turns one source into images and/or further sources.
//
// Open must complete res exactly once on every path, either before returning or later from a continuation
// started with Job.Go. It must never block the event loop.
type Opener interface {
	Name() string
	Filter() Filter
	Open(job *Job, res *Results, src *source.Source)
}

// Guesser selects the opener for a source among ordered candidates.
//
// Candidates are ordered by ascending priority, so guessers walk them from the end, see FirstMatch.
// When Guess returns nil the caller uses Fallback, which may be nil as well.
type Guesser interface {
	Name() string
	Kinds() []source.Kind
	Guess(src *source.Source, candidates []Opener) Opener
	Fallback() Opener
}

// Filter declares what an opener can handle. Empty lists match nothing, except Kinds.
type Filter struct {
	Kinds      []source.Kind
	MimeTypes  []string
	Extensions []string
	Formats    []string
	Schemes    []string
}

// AcceptsKind reports whether the opener handles sources of the given kind.
func (filter Filter) AcceptsKind(kind source.Kind) bool {
	return len(filter.Kinds) == 0 || slices.Contains(filter.Kinds, kind)
}

// MatchMimeType supports `type/*` wildcards.
func (filter Filter) MatchMimeType(mimeType string) bool {
	if mimeType == "" {
		return false
	}

	mimeType = strings.ToLower(mimeType)

	for _, pattern := range filter.MimeTypes {
		if ok, _ := path.Match(pattern, mimeType); ok {
			return true
		}
	}

	return false
}

// MatchExtension matches a file name, or a bare extension, by suffix so that
// compound extensions like `.tar.gz` work. Comparison is case insensitive.
func (filter Filter) MatchExtension(name string) bool {
	if name == "" {
		return false
	}

	name = strings.ToLower(name)

	for _, known := range filter.Extensions {
		if strings.HasSuffix(name, known) {
			return true
		}
	}

	return false
}

func (filter Filter) MatchFormat(format string) bool {
	return format != "" && slices.Contains(filter.Formats, format)
}

func (filter Filter) MatchScheme(scheme string) bool {
	return scheme != "" && slices.Contains(filter.Schemes, strings.ToLower(scheme))
}

// FirstMatch returns the highest priority candidate, that is the last one, satisfying match.
func FirstMatch(candidates []Opener, match func(filter Filter) bool) Opener {
	for i := len(candidates) - 1; i >= 0; i-- {
		if match(candidates[i].Filter()) {
			return candidates[i]
		}
	}

	return nil
}

// Registry is the fixed set of openers and guessers a job works with. Both lists are ordered by
// ascending priority.
type Registry struct {
	openers  []Opener
	guessers []Guesser
}

// NewRegistry returns a registry over the given openers and guessers.
func NewRegistry(openers []Opener, guessers []Guesser) *Registry {
	return &Registry{
		openers:  openers,
		guessers: guessers,
	}
}

// Openers returns a copy of all registered openers.
func (registry *Registry) Openers() []Opener {
	return slices.Clone(registry.openers)
}

// Guessers returns the guessers that handle the given kind, in registration order.
func (registry *Registry) Guessers(kind source.Kind) []Guesser {
	var guessers []Guesser

	for _, guesser := range registry.guessers {
		if slices.Contains(guesser.Kinds(), kind) {
			guessers = append(guessers, guesser)
		}
	}

	return guessers
}

// Opener returns the registered opener with the given name.
func (registry *Registry) Opener(name string) Opener {
	for _, opener := range registry.openers {
		if opener.Name() == name {
			return opener
		}
	}

	return nil
}

// Lookup picks the opener for src among openers. Guessers are tried in order and the first
// guess wins; if none guesses, the first declared fallback is used.
func (registry *Registry) Lookup(src *source.Source, openers []Opener) Opener {
	var candidates []Opener

	for _, opener := range openers {
		if opener.Filter().AcceptsKind(src.Kind) {
			candidates = append(candidates, opener)
		}
	}

	guessers := registry.Guessers(src.Kind)

	for _, guesser := range guessers {
		if opener := guesser.Guess(src, candidates); opener != nil {
			return opener
		}
	}

	for _, guesser := range guessers {
		if fallback := guesser.Fallback(); fallback != nil {
			return fallback
		}
	}

	return nil
}
