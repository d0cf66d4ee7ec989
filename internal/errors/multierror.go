package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// MultiError collects the errors of independent operations, e.g. every failed open of a session.
// The zero value is ready to use.
type MultiError struct {
	inner *multierror.Error
}

// Append returns a MultiError with the given non-nil errors appended.
func (errs *MultiError) Append(appendErrs ...error) *MultiError {
	if errs == nil {
		errs = &MultiError{}
	}

	inner := errs.inner
	if inner == nil {
		inner = new(multierror.Error)
	}

	for _, err := range appendErrs {
		if err != nil {
			inner = multierror.Append(inner, err)
		}
	}

	return &MultiError{inner: inner}
}

// Len returns the number of collected errors.
func (errs *MultiError) Len() int {
	if errs == nil || errs.inner == nil {
		return 0
	}

	return errs.inner.Len()
}

// WrappedErrors returns the error slice that this MultiError is wrapping.
func (errs *MultiError) WrappedErrors() []error {
	if errs == nil || errs.inner == nil {
		return nil
	}

	return errs.inner.WrappedErrors()
}

func (errs *MultiError) Unwrap() []error {
	return errs.WrappedErrors()
}

// ErrorOrNil returns nil if no error was collected.
func (errs *MultiError) ErrorOrNil() error {
	if errs.Len() == 0 {
		return nil
	}

	return errs
}

// Error implements the error interface.
func (errs *MultiError) Error() string {
	wrapped := errs.WrappedErrors()
	lines := make([]string, 0, len(wrapped))

	for _, err := range wrapped {
		lines = append(lines, indent(err.Error()))
	}

	if len(wrapped) == 1 {
		return fmt.Sprintf("error occurred:\n\n%s\n", strings.Join(lines, "\n\n"))
	}

	return fmt.Sprintf("%d errors occurred:\n\n%s\n", len(wrapped), strings.Join(lines, "\n\n"))
}

func indent(str string) string {
	str = strings.ReplaceAll(str, "\r\n", "\n")
	rawLines := strings.Split(str, "\n")

	for i, line := range rawLines {
		if i == 0 {
			rawLines[i] = "* " + line
			continue
		}

		rawLines[i] = "  " + line
	}

	return strings.Join(rawLines, "\n")
}
