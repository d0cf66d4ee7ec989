// Package errors contains helper functions for wrapping errors with stack traces, stack output, and panic recovery.
package errors

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/urfave/cli/v2"
)

// New creates a new error with a stack trace. The value can be an existing error, which is then wrapped,
// or anything else, which is formatted with `%v`. If the value already carries a stack trace it is used directly.
func New(val any) error {
	if val == nil {
		return nil
	}

	if err, ok := val.(error); ok && ContainsStackTrace(err) {
		return err
	}

	return goerrors.Wrap(val, 1)
}

// Errorf creates a new error and wraps in an Error type that contains the stack trace.
func Errorf(message string, args ...any) error {
	err := fmt.Errorf(message, args...)
	return goerrors.Wrap(err, 1)
}

// WithPanicHandling wraps a cli action to turn panics into errors carrying a stack trace.
func WithPanicHandling(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		defer Recover(func(cause error) {
			err = cause
		})

		return action(ctx)
	}
}
