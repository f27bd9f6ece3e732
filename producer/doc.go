// Package producer provides a small, well-documented abstraction for
// running a continuous, buffered background producer.
//
// The primary type is Producer[M, R], which owns a single worker goroutine
// connected to the host by a pair of point-to-point conduits: an unbounded
// inbound conduit for commands (host to worker) and an optionally bounded
// outbound conduit for produced values (worker to host). Failures raised by
// user logic inside the worker never crash it; they are wrapped and delivered
// to the host through the outbound conduit as ordinary items.
//
// # Basic Usage
//
//	type counter struct{ i int }
//
//	func (c *counter) HandleMessage(msg int) error { c.i = msg; return nil }
//	func (c *counter) ProductionStep() (int, error) {
//	    v := c.i
//	    c.i++
//	    return v, nil
//	}
//
//	p := producer.New[int, int](&counter{}, producer.WithBufferCapacity(10))
//	if err := p.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	v, err := p.Get(time.Second) // 0, then 1, 2, ...
//	p.Send(50)                   // counter resumes from 50
//	_ = p.Stop()
//
// # Lifecycle
//
// A producer moves through exactly three states, each transition at most
// once: NotStarted, Running, Stopped. Start fails with ErrAlreadyStarted on
// anything but a fresh producer. Stop is fire-and-forget: it enqueues a stop
// request and returns immediately; the worker finishes its current iteration,
// closes both conduits and exits. Full teardown is observable through Done
// and State. Cancelling the context passed to Start shuts the worker down
// the same way.
//
// # Buffering and Backpressure
//
// With WithBufferCapacity(n) the outbound conduit holds at most n items and
// the worker skips production while it is full, resuming as soon as the host
// drains a slot. Without it the conduit grows without bound and production
// never pauses. Wrapped errors occupy a slot exactly like values.
//
// # Error Handling
//
// Failures are split into two groups. Protocol misuse (ErrAlreadyStarted,
// ErrNotStarted) is returned synchronously at the call site. Failures inside
// the user-supplied Source, whether returned errors or panics, are recovered
// in the worker, wrapped as *MessageHandlingError or *ProductionStepError
// and surfaced by Get as the error result, with the original cause available
// through errors.As and Unwrap.
//
// # Injected Producers
//
// NewInjectable builds a producer from two plain functions over a versioned
// state map, without writing a Source implementation:
//
//	p := producer.NewInjectable[int, int](
//	    func(s producer.InjectState) (producer.InjectState, int, error) {
//	        i, _ := s["i"].(int)
//	        s["i"] = i + 1
//	        return s, i, nil
//	    },
//	    func(msg int, s producer.InjectState) (producer.InjectState, error) {
//	        s["i"] = msg
//	        return s, nil
//	    },
//	    producer.InjectState{"i": 0},
//	)
//
// Each call receives a shallow snapshot of the current state and returns the
// next one; the stored state is replaced only after the call succeeds, so a
// failing call can never leave it half-updated.
//
// The package is designed to be small and idiomatic for Go 1.18+ (generics).
package producer
