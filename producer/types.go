package producer

// Source supplies the two pieces of user logic a producer runs inside its
// worker: reacting to inbound messages and generating the next value. Both
// methods are invoked only from the worker goroutine, never concurrently
// with each other.
//
// Errors returned (and panics raised) by either method are recovered by the
// worker and delivered to the host as *MessageHandlingError or
// *ProductionStepError items; they never terminate the worker.
//
// Type parameters:
//   - M: The inbound message type
//   - R: The produced value type
type Source[M any, R any] interface {
	// HandleMessage processes one inbound message from the host.
	HandleMessage(msg M) error

	// ProductionStep produces the next value in the output sequence.
	ProductionStep() (R, error)
}

// State is the lifecycle phase of a Producer. Transitions are one-way and
// happen at most once: NotStarted -> Running (Start) -> Stopped (worker
// exit).
type State int32

const (
	// StateNotStarted is the initial state; the worker has not been spawned.
	StateNotStarted State = iota
	// StateRunning means the worker loop is active.
	StateRunning
	// StateStopped means the worker has exited and both conduits are closed.
	StateStopped
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// envelope wraps every inbound item. The stop flag is the shutdown sentinel:
// it lives outside the payload, so no host payload can ever collide with it.
type envelope[M any] struct {
	payload M
	stop    bool
}

// item wraps every outbound slot: either a produced value or a wrapped
// worker-side failure. Both occupy one buffer slot.
type item[R any] struct {
	value R
	err   error
}
