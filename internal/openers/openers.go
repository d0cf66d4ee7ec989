// Package openers provides the built-in openers and guessers and assembles them into a registry.
//
// Openers never block the event loop: anything touching the filesystem or the network runs
// through Job.Go and completes the results from the continuation.
package openers

import (
	"github.com/gobwas/glob"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
)

const (
	DirectoryName = "directory"
	ArchiveName   = "archive"
	ImageName     = "image"
	LocalURIName  = "local-uri"
	DownloadName  = "download"
	URIListName   = "uri-list"
	TextName      = "text"
	ImageDataName = "image-data"
)

// Deps are the collaborators and settings of the built-in openers.
type Deps struct {
	Decoder pipeline.Decoder
	// TempDir is where archives are extracted and downloads stored, the system default if empty.
	TempDir string
	// Ignore holds glob patterns of directory entries to skip.
	Ignore     []string
	ShowHidden bool
}

// NewRegistry returns the built-in openers, by ascending priority, and guessers.
func NewRegistry(deps Deps) (*pipeline.Registry, error) {
	ignore := make([]glob.Glob, 0, len(deps.Ignore))

	for _, pattern := range deps.Ignore {
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.New(InvalidIgnorePatternError{Pattern: pattern, Err: err})
		}

		ignore = append(ignore, compiled)
	}

	download := NewDownload(deps.TempDir)

	openers := []pipeline.Opener{
		NewDirectory(deps.ShowHidden, ignore...),
		NewArchive(deps.TempDir),
		NewImage(deps.Decoder),
		NewLocalURI(),
		download,
		NewText(),
		NewURIList(),
		NewImageData(),
	}

	guessers := []pipeline.Guesser{
		NewMimeGuesser(),
		NewExtensionGuesser(),
		NewURIGuesser(download),
		NewSelectionGuesser(),
	}

	return pipeline.NewRegistry(openers, guessers), nil
}

// InvalidIgnorePatternError is returned for ignore globs that do not compile.
type InvalidIgnorePatternError struct {
	Err     error
	Pattern string
}

func (err InvalidIgnorePatternError) Error() string {
	return "invalid ignore pattern " + err.Pattern + ": " + err.Err.Error()
}

func (err InvalidIgnorePatternError) Unwrap() error {
	return err.Err
}

// RequiresOSFSError is returned by openers delegating to tools that only work on the real filesystem.
type RequiresOSFSError struct {
	Opener string
}

func (err RequiresOSFSError) Error() string {
	return err.Opener + " opener requires the OS filesystem"
}
