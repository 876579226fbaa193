package workerpool

import (
	"sync"
	"time"
)

// Future represents the pending result of a task submitted with Submit.
type Future[T any] struct {
	value T
	err   error
	done  chan struct{}
	once  sync.Once
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Get blocks until the result is available and returns it. The error is the
// task's own error, a recovered panic, or ErrPoolClosed if the task was
// abandoned at shutdown.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// GetWithTimeout waits for the result with a timeout. The last return value is
// false if the timeout elapsed first; the task keeps running.
func (f *Future[T]) GetWithTimeout(timeout time.Duration) (T, error, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err, true
	case <-timer.C:
		var zero T
		return zero, nil, false
	}
}

// IsDone checks if the task has completed
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Submit queues fn on tp and returns a future for its result. It does not
// wait for fn to run. Results may complete in any order; callers that need
// ordered output keep the futures in submission order and Get them in turn.
func Submit[T any](tp *ThreadPool, fn func() (T, error)) (*Future[T], error) {
	f := newFuture[T]()

	err := tp.enqueue(&job{
		run: func() error {
			v, err := fn()
			f.value = v
			return err
		},
		finish: f.complete,
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

// SubmitValue is Submit for work that cannot fail.
func SubmitValue[T any](tp *ThreadPool, fn func() T) (*Future[T], error) {
	return Submit(tp, func() (T, error) {
		return fn(), nil
	})
}
