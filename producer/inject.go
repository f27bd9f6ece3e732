package producer

import "maps"

// InjectState is the mutable value threaded through an injected producer's
// callbacks. It is owned exclusively by the worker loop: callbacks receive a
// shallow clone and return the next state, and the stored state is replaced
// only after the callback succeeds. A still-running callback can therefore
// never observe partial mutation, and a failing one leaves the state
// untouched.
type InjectState map[string]any

// ProduceFunc generates the next value for an injected producer. It receives
// a snapshot of the current state and returns the state to store next along
// with the produced value. A pure step returns its snapshot unchanged.
//
// Type parameters:
//   - R: The produced value type
type ProduceFunc[R any] func(state InjectState) (InjectState, R, error)

// HandleFunc applies one inbound message to an injected producer's state,
// returning the state to store next.
//
// Type parameters:
//   - M: The inbound message type
type HandleFunc[M any] func(msg M, state InjectState) (InjectState, error)

// injectable adapts a pair of plain functions over a state map to the Source
// interface. Both methods run only on the worker goroutine, so the state
// field needs no locking.
type injectable[M any, R any] struct {
	produce ProduceFunc[R]
	handle  HandleFunc[M]
	state   InjectState
}

// NewInjectable creates a producer driven by externally supplied logic
// instead of a hand-written Source. Either function may be nil: a nil
// produce yields zero values, a nil handle makes inbound messages no-ops.
//
// Parameters:
//   - produce: Production step over a state snapshot (may be nil)
//   - handle: Message handler over a state snapshot (may be nil)
//   - initial: Starting state (nil is treated as an empty map)
//   - opts: Variadic producer options
//
// Returns:
//   - *Producer: An unstarted producer wrapping the injected logic
//
// Example:
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
//	    producer.InjectState{"i": 10},
//	    producer.WithBufferCapacity(100),
//	)
func NewInjectable[M any, R any](
	produce ProduceFunc[R],
	handle HandleFunc[M],
	initial InjectState,
	opts ...Option,
) *Producer[M, R] {
	if initial == nil {
		initial = InjectState{}
	}
	src := &injectable[M, R]{
		produce: produce,
		handle:  handle,
		state:   initial,
	}
	return New[M, R](src, opts...)
}

// HandleMessage snapshots the state, applies the injected handler and stores
// the returned state. With no handler configured the message is dropped.
func (s *injectable[M, R]) HandleMessage(msg M) error {
	if s.handle == nil {
		return nil
	}
	next, err := s.handle(msg, s.snapshot())
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// ProductionStep snapshots the state, runs the injected production function
// and stores the returned state. With no production function configured it
// yields the zero value.
func (s *injectable[M, R]) ProductionStep() (R, error) {
	var zero R
	if s.produce == nil {
		return zero, nil
	}
	next, v, err := s.produce(s.snapshot())
	if err != nil {
		return zero, err
	}
	s.state = next
	return v, nil
}

// snapshot returns a shallow copy of the current state.
func (s *injectable[M, R]) snapshot() InjectState {
	snap := maps.Clone(s.state)
	if snap == nil {
		snap = InjectState{}
	}
	return snap
}
