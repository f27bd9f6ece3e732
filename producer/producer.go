package producer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Producer is a continuous background producer. It owns one worker goroutine
// and the conduit pair connecting it to the host: an unbounded inbound
// conduit for commands and an optionally bounded outbound conduit for
// produced values. No other mutable state crosses the host/worker boundary.
//
// The worker repeatedly drains pending inbound messages (commands always
// take priority over production) and then, if the outbound conduit has room,
// runs one production step. Failures inside the user-supplied Source are
// recovered and delivered to the host as wrapped error items; the only event
// that terminates the worker is a stop request or cancellation of the Start
// context.
//
// Type parameters:
//   - M: The inbound message type
//   - R: The produced value type
type Producer[M any, R any] struct {
	source   Source[M, R]
	inbound  *queue[envelope[M]]
	outbound *queue[item[R]]

	state    atomic.Int32
	done     chan struct{}
	idleWait time.Duration
	limiter  *rate.Limiter
}

// New creates a producer around src with the given options. No goroutine is
// spawned until Start.
//
// Parameters:
//   - src: The Source supplying message handling and production logic
//   - opts: Variadic options (buffer capacity, rate limit, idle wait)
//
// Returns:
//   - *Producer: An unstarted producer in StateNotStarted
//
// Example:
//
//	p := producer.New[int, int](&counter{}, producer.WithBufferCapacity(10))
//	_ = p.Start(ctx)
//	v, err := p.Get(time.Second)
func New[M any, R any](src Source[M, R], opts ...Option) *Producer[M, R] {
	cfg := newConfig(opts...)
	return &Producer[M, R]{
		source:   src,
		inbound:  newQueue[envelope[M]](0),
		outbound: newQueue[item[R]](cfg.bufferCapacity),
		done:     make(chan struct{}),
		idleWait: cfg.idleWait,
		limiter:  cfg.rateLimiter,
	}
}

// Start spawns the worker loop. It may be called exactly once per producer;
// a producer that has stopped cannot be restarted.
//
// Cancelling ctx shuts the worker down the same way a Stop request does:
// both conduits are closed and the producer moves to StateStopped.
//
// Parameters:
//   - ctx: Context bounding the worker's lifetime
//
// Returns:
//   - error: ErrAlreadyStarted if Start was already called, nil otherwise
func (p *Producer[M, R]) Start(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	var g errgroup.Group
	g.Go(func() error {
		return p.run(ctx)
	})

	go func() {
		_ = g.Wait()
		cancel()
		close(p.done)
	}()

	return nil
}

// Stop requests a graceful shutdown and returns immediately; it does not
// wait for the worker to exit. The worker finishes draining whatever is
// already pending, closes both conduits and exits; items buffered on the
// outbound conduit stay available to Get until drained. Use Done or State
// to observe completed teardown.
//
// Returns:
//   - error: ErrNotStarted before Start, ErrStopped if the worker has
//     already shut down, nil once the stop request is queued
func (p *Producer[M, R]) Stop() error {
	if p.State() == StateNotStarted {
		return ErrNotStarted
	}
	if err := p.inbound.Enqueue(context.Background(), envelope[M]{stop: true}); err != nil {
		return ErrStopped
	}
	return nil
}

// Send enqueues msg for the worker's message handler. It never blocks: the
// inbound conduit is unbounded. Messages sent before Start are queued and
// handled once the worker runs.
//
// Parameters:
//   - msg: Arbitrary host data for Source.HandleMessage
//
// Returns:
//   - error: ErrStopped once the worker has shut down, nil otherwise
func (p *Producer[M, R]) Send(msg M) error {
	if err := p.inbound.Enqueue(context.Background(), envelope[M]{payload: msg}); err != nil {
		return ErrStopped
	}
	return nil
}

// Get returns the next outbound item, blocking up to timeout. Items arrive
// in exactly the order the worker appended them.
//
// Parameters:
//   - timeout: Maximum duration to wait for an item
//
// Returns:
//   - R: The produced value, if the next item is a value
//   - error: ErrNotStarted before Start; ErrReceiveTimeout when nothing
//     arrives in time; ErrStopped once stopped and fully drained; or the
//     *MessageHandlingError / *ProductionStepError the worker recovered,
//     with the original cause reachable through errors.As and Unwrap
func (p *Producer[M, R]) Get(timeout time.Duration) (R, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	v, err := p.GetContext(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return v, ErrReceiveTimeout
	}
	return v, err
}

// GetContext is Get with caller-supplied cancellation instead of a fixed
// timeout. Context expiry is reported as ctx.Err().
func (p *Producer[M, R]) GetContext(ctx context.Context) (R, error) {
	var zero R
	if p.State() == StateNotStarted {
		return zero, ErrNotStarted
	}

	it, err := p.outbound.Dequeue(ctx)
	if err != nil {
		if errors.Is(err, errQueueClosed) {
			return zero, ErrStopped
		}
		return zero, err
	}

	if it.err != nil {
		return zero, it.err
	}
	return it.value, nil
}

// Done returns a channel that is closed once the worker has fully exited and
// both conduits are closed. It lets hosts wait deterministically on the
// asynchronous Stop.
func (p *Producer[M, R]) Done() <-chan struct{} {
	return p.done
}

// State returns the producer's current lifecycle state.
func (p *Producer[M, R]) State() State {
	return State(p.state.Load())
}

// Buffered returns the number of items currently waiting on the outbound
// conduit.
func (p *Producer[M, R]) Buffered() int {
	return p.outbound.Len()
}

// Pending returns the number of inbound messages the worker has not yet
// drained.
func (p *Producer[M, R]) Pending() int {
	return p.inbound.Len()
}

// Capacity returns the outbound buffer capacity (0 = unbounded).
func (p *Producer[M, R]) Capacity() int {
	return p.outbound.Cap()
}

// run is the worker loop. Each iteration drains all pending inbound
// messages, then attempts at most one production step; when an iteration
// does neither, the worker parks until input arrives, a buffer slot frees,
// or the idle wait elapses.
func (p *Producer[M, R]) run(ctx context.Context) error {
	defer p.shutdown()

	for {
		stopped, handled := p.drainInbound(ctx)
		if stopped {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		produced := p.produceOnce(ctx)
		if handled || produced {
			continue
		}

		if err := p.idle(ctx); err != nil {
			return err
		}
	}
}

// shutdown closes both conduits and marks the producer stopped. Runs exactly
// once, from the worker goroutine.
func (p *Producer[M, R]) shutdown() {
	p.inbound.Close()
	p.outbound.Close()
	p.state.Store(int32(StateStopped))
}

// drainInbound processes every message already queued, without waiting for
// more. A stop envelope ends the drain and reports shutdown; handler
// failures are wrapped and delivered outbound, consuming a buffer slot like
// any produced value.
func (p *Producer[M, R]) drainInbound(ctx context.Context) (stopped, handled bool) {
	for {
		env, ok := p.inbound.TryDequeue()
		if !ok {
			return false, handled
		}
		if env.stop {
			return true, handled
		}

		handled = true
		if err := p.handleMessage(env.payload); err != nil {
			p.deliver(ctx, item[R]{err: &MessageHandlingError{Cause: err}})
		}
	}
}

// produceOnce runs a single production step if the outbound conduit has room
// and the rate limiter admits one. It reports whether a step ran.
func (p *Producer[M, R]) produceOnce(ctx context.Context) bool {
	if p.outbound.Full() {
		return false
	}
	if p.limiter != nil && !p.limiter.Allow() {
		return false
	}

	v, err := p.productionStep()
	if err != nil {
		p.deliver(ctx, item[R]{err: &ProductionStepError{Cause: err}})
	} else {
		p.deliver(ctx, item[R]{value: v})
	}
	return true
}

// deliver appends an item to the outbound conduit, waiting for a slot if the
// conduit is at capacity. Delivery can only fail during teardown, when the
// item has nowhere to go anyway.
func (p *Producer[M, R]) deliver(ctx context.Context, it item[R]) {
	_ = p.outbound.Enqueue(ctx, it)
}

// idle parks the worker until there is a reason to iterate again.
func (p *Producer[M, R]) idle(ctx context.Context) error {
	timer := time.NewTimer(p.idleWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.inbound.notifyC:
	case <-p.outbound.spaceC:
	case <-timer.C:
	}
	return nil
}

// handleMessage invokes the source's message handler with panic recovery, so
// a panicking handler surfaces as an error item instead of crashing the
// worker.
func (p *Producer[M, R]) handleMessage(msg M) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError("message handler", r)
		}
	}()
	return p.source.HandleMessage(msg)
}

// productionStep invokes the source's production step with panic recovery.
func (p *Producer[M, R]) productionStep() (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError("production step", r)
		}
	}()
	return p.source.ProductionStep()
}

func panicError(where string, r any) error {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return fmt.Errorf("%s panic: %v\nstack trace:\n%s", where, r, buf[:n])
}
