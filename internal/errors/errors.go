// Package errors contains helpers for wrapping errors with stack traces and for turning panics into errors.
package errors

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/urfave/cli/v2"
)

// New creates a new error with the given message and attaches the current stack trace.
func New(message string) error {
	return goerrors.Wrap(errors.New(message), 1)
}

// Errorf creates a new error and wraps in an Error type that contains the stack trace.
func Errorf(message string, args ...any) error {
	err := fmt.Errorf(message, args...)
	return goerrors.Wrap(err, 1)
}

// WithStackTrace wraps the given error in an Error type that contains the stack trace. If the given error already
// has a stack trace, it is used directly. If the given error is nil, return nil.
func WithStackTrace(err error) error {
	if err == nil {
		return nil
	}

	return goerrors.Wrap(err, 1)
}

// ErrorWithStackTrace returns a string that contains both the error message and the callstack.
func ErrorWithStackTrace(err error) string {
	if err == nil {
		return ""
	}

	return goError(err).ErrorStack()
}

func goError(err error) *goerrors.Error {
	goerr := &goerrors.Error{Err: err}

	for {
		if found := new(goerrors.Error); errors.As(err, &found) {
			goerr = found
		}

		if err = errors.Unwrap(err); err == nil {
			break
		}
	}

	return goerr
}

// Recover tries to recover from panics, and if it succeeds, calls the given onPanic function with an error that
// explains the cause of the panic. This function should only be called from a defer statement.
func Recover(onPanic func(cause error)) {
	if rec := recover(); rec != nil {
		err, isError := rec.(error)
		if !isError {
			err = fmt.Errorf("panic: %v", rec)
		}

		onPanic(goerrors.Wrap(err, 2))
	}
}

// WithPanicHandling wraps a *cli.App action so that a panic is returned up the chain as an error carrying the stack
// trace of the panic site.
func WithPanicHandling(action func(c *cli.Context) error) func(c *cli.Context) error {
	return func(ctx *cli.Context) (err error) {
		defer Recover(func(cause error) {
			err = cause
		})

		return action(ctx)
	}
}
