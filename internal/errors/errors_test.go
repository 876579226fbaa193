package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/majiddarvishan/wellformed/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

var errSentinel = stderrors.New("sentinel")

func TestWithStackTraceKeepsIdentity(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.WithStackTrace(nil))

	err := errors.WithStackTrace(errSentinel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errSentinel))
	assert.Equal(t, "sentinel", err.Error())
	assert.Contains(t, errors.ErrorWithStackTrace(err), "errors_test.go")
}

func TestRecoverConvertsPanic(t *testing.T) {
	t.Parallel()

	run := func(v any) (err error) {
		defer errors.Recover(func(cause error) {
			err = cause
		})

		panic(v)
	}

	err := run("boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	err = run(errSentinel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errSentinel))
}

func TestRecoverWithoutPanic(t *testing.T) {
	t.Parallel()

	called := false
	func() {
		defer errors.Recover(func(error) { called = true })
	}()

	assert.False(t, called)
}

func TestWithPanicHandling(t *testing.T) {
	t.Parallel()

	ctx := cli.NewContext(cli.NewApp(), nil, nil)

	action := errors.WithPanicHandling(func(*cli.Context) error {
		panic("action exploded")
	})
	err := action(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action exploded")
	assert.Contains(t, errors.ErrorWithStackTrace(err), "errors_test.go")

	action = errors.WithPanicHandling(func(*cli.Context) error { return errSentinel })
	require.ErrorIs(t, action(ctx), errSentinel)

	action = errors.WithPanicHandling(func(*cli.Context) error { return nil })
	require.NoError(t, action(ctx))
}
