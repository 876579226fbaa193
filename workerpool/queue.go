package workerpool

import (
	"sync"

	"github.com/majiddarvishan/wellformed/internal/errors"
)

// ErrQueueClosed is returned by Push once the queue has been closed.
var ErrQueueClosed = errors.New("queue closed")

// Queue is an unbounded FIFO safe for use by many goroutines. Push never
// blocks; there is no backpressure, so producers that outrun the consumers
// grow the queue without limit.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool
}

// NewQueue returns an empty open queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends v to the tail and wakes one waiter.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, v)
	q.cond.Signal()

	return nil
}

// WaitAndPop blocks until an item is available and removes it from the head.
// It returns false once the queue is closed and empty.
func (q *Queue[T]) WaitAndPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	return q.popLocked()
}

// TryPop removes the head item without blocking. It returns false if the
// queue is empty.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.popLocked()
}

func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}

	return v, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Close stops the queue from accepting items and wakes every waiter. Items
// already queued can still be popped. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Abort closes the queue and returns everything still in it, in FIFO order.
func (q *Queue[T]) Abort() []T {
	q.mu.Lock()
	q.closed = true
	items := q.items
	q.items = nil
	q.mu.Unlock()

	q.cond.Broadcast()

	return items
}

// Closed reports whether Close or Abort has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}
