package producer

import (
	"context"
	"errors"
	"sync"
)

var errQueueClosed = errors.New("conduit is closed")

// queue is the point-to-point conduit connecting host and worker. It is an
// insertion-ordered FIFO with an optional fixed capacity (0 = unbounded),
// safe for exactly one enqueuing side and one dequeuing side.
//
// Closing a queue stops new enqueues immediately but lets the consumer drain
// whatever is already buffered; Dequeue reports errQueueClosed only once the
// queue is both closed and empty.
type queue[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int
	capacity int // 0 means unbounded
	closed   bool

	// notifyC carries "data may be available" hints, buffered and never
	// closed; closeC is closed exactly once on Close; spaceC carries "a slot
	// may have freed" hints for bounded queues.
	notifyC chan struct{}
	closeC  chan struct{}
	spaceC  chan struct{}
}

func newQueue[T any](capacity int) *queue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &queue[T]{
		capacity: capacity,
		notifyC:  make(chan struct{}, 1),
		closeC:   make(chan struct{}),
		spaceC:   make(chan struct{}, 1),
	}
}

// Enqueue appends v to the queue, blocking while a bounded queue is at
// capacity. It returns errQueueClosed if the queue is closed before v is
// accepted, or ctx.Err() if the context expires first. Unbounded queues
// never block.
func (q *queue[T]) Enqueue(ctx context.Context, v T) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return errQueueClosed
		}
		if q.capacity == 0 || len(q.buf)-q.head < q.capacity {
			q.push(v)
			q.mu.Unlock()
			signal(q.notifyC)
			return nil
		}
		q.mu.Unlock()

		select {
		case <-q.spaceC:
		case <-q.closeC:
			return errQueueClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Dequeue removes and returns the oldest item, blocking until one is
// available, the context expires, or the queue is closed and drained.
func (q *queue[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if v, ok := q.pop(); ok {
			q.mu.Unlock()
			signal(q.spaceC)
			return v, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return zero, errQueueClosed
		}

		select {
		case <-q.notifyC:
		case <-q.closeC:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// TryDequeue removes and returns the oldest item without blocking.
// Returns (zero, false) if the queue is empty.
func (q *queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	v, ok := q.pop()
	q.mu.Unlock()
	if ok {
		signal(q.spaceC)
	}
	return v, ok
}

// Len returns the number of buffered items.
func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf) - q.head
}

// Cap returns the capacity of the queue (0 = unbounded).
func (q *queue[T]) Cap() int {
	return q.capacity
}

// Full reports whether a bounded queue is at capacity. Unbounded queues are
// never full.
func (q *queue[T]) Full() bool {
	if q.capacity == 0 {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)-q.head >= q.capacity
}

// Close marks the queue as closed. No new items can be enqueued after close;
// buffered items remain dequeuable.
func (q *queue[T]) Close() {
	q.mu.Lock()
	wasClosed := q.closed
	q.closed = true
	q.mu.Unlock()
	if !wasClosed {
		close(q.closeC)
	}
}

// push appends v. Callers must hold mu.
func (q *queue[T]) push(v T) {
	q.buf = append(q.buf, v)
}

// pop removes the head item. Callers must hold mu. The backing slice is
// compacted once the dead prefix dominates, so long-lived queues do not pin
// consumed items.
func (q *queue[T]) pop() (T, bool) {
	var zero T
	if q.head >= len(q.buf) {
		return zero, false
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head++

	if q.head > 32 && q.head*2 >= len(q.buf) {
		n := copy(q.buf, q.buf[q.head:])
		clear(q.buf[n:])
		q.buf = q.buf[:n]
		q.head = 0
	}
	return v, true
}

// signal posts a non-blocking hint on a capacity-1 notification channel.
// A pending hint is enough; receivers always re-check real state.
func signal(c chan struct{}) {
	select {
	case c <- struct{}{}:
	default:
	}
}
