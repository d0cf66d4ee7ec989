package errors_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/imgopen/internal/errors"
)

type notFoundError struct {
	path string
}

func (err notFoundError) Error() string {
	return "not found: " + err.path
}

func TestNewKeepsCauseAndStack(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.New(nil))

	err := errors.New(notFoundError{path: "a.png"})
	require.Error(t, err)

	var target notFoundError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "a.png", target.path)
	assert.NotEmpty(t, errors.ErrorStack(err))

	// an error with a stack is not wrapped twice
	assert.Same(t, err, errors.New(err))
}

func TestMultiError(t *testing.T) {
	t.Parallel()

	var errs *errors.MultiError

	assert.NoError(t, errs.ErrorOrNil())

	errs = errs.Append(nil, fmt.Errorf("first"), context.Canceled)
	errs = errs.Append(fmt.Errorf("second\nline"))

	require.Equal(t, 3, errs.Len())
	assert.True(t, errors.IsContextCanceled(errs))
	assert.Contains(t, errs.Error(), "3 errors occurred")
	assert.Contains(t, errs.Error(), "* second\n  line")
	assert.Len(t, errors.UnwrapMultiErrors(errs), 3)
}

func TestRecover(t *testing.T) {
	t.Parallel()

	var cause error

	func() {
		defer errors.Recover(func(err error) {
			cause = err
		})

		panic("boom")
	}()

	require.Error(t, cause)
	assert.Contains(t, cause.Error(), "boom")
}
