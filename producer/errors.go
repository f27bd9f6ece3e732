package producer

import "errors"

var (
	// ErrAlreadyStarted is returned by Start when the producer has already
	// been started, even if it has since stopped.
	ErrAlreadyStarted = errors.New("producer already started")

	// ErrNotStarted is returned by Get and Stop before Start has been called.
	ErrNotStarted = errors.New("producer not started")

	// ErrStopped is returned by Send, Stop and Get once the worker has shut
	// down and, for Get, the outbound conduit has been fully drained.
	ErrStopped = errors.New("producer stopped")

	// ErrReceiveTimeout is returned by Get when no item arrives within the
	// requested window. It signals absence of data, not corruption; callers
	// should retry.
	ErrReceiveTimeout = errors.New("no production output within timeout")
)

// MessageHandlingError wraps a failure raised by Source.HandleMessage. It is
// recovered inside the worker and delivered to the host through Get.
type MessageHandlingError struct {
	Cause error
}

func (e *MessageHandlingError) Error() string {
	return "message handling failed: " + e.Cause.Error()
}

func (e *MessageHandlingError) Unwrap() error { return e.Cause }

// ProductionStepError wraps a failure raised by Source.ProductionStep. It is
// recovered inside the worker and delivered to the host through Get.
type ProductionStepError struct {
	Cause error
}

func (e *ProductionStepError) Error() string {
	return "production step failed: " + e.Cause.Error()
}

func (e *ProductionStepError) Unwrap() error { return e.Cause }
