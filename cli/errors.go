package cli

import "fmt"

// NoMatchesError is returned for a glob argument that matches no file.
type NoMatchesError struct {
	Pattern string
}

func (err NoMatchesError) Error() string {
	return fmt.Sprintf("no files match %q", err.Pattern)
}

// InvalidArgError is returned for an argument that is neither a path nor a URI.
type InvalidArgError struct {
	Err error
	Arg string
}

func (err InvalidArgError) Error() string {
	return fmt.Sprintf("invalid argument %q: %v", err.Arg, err.Err)
}

func (err InvalidArgError) Unwrap() error {
	return err.Err
}

// NoInputError is returned when there is nothing to open.
type NoInputError struct{}

func (NoInputError) Error() string {
	return "nothing to open, pass paths, URIs or --clipboard"
}
