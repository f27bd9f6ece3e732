package producer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func countingProduce(s InjectState) (InjectState, int, error) {
	i, _ := s["i"].(int)
	s["i"] = i + 1
	return s, i, nil
}

func resettingHandle(msg int, s InjectState) (InjectState, error) {
	s["i"] = msg
	return s, nil
}

func startInjected(t *testing.T, p *Producer[int, int]) {
	t.Helper()
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Stop() })
}

func TestInjectable_Production(t *testing.T) {
	p := NewInjectable[int, int](
		countingProduce,
		resettingHandle,
		InjectState{"i": 10},
		WithBufferCapacity(1),
	)
	startInjected(t, p)

	for i := 0; i < 10; i++ {
		v := mustGet(t, p)
		if v != i+10 {
			t.Fatalf("expected %d, got %d", i+10, v)
		}
	}
}

func TestInjectable_StateChange(t *testing.T) {
	p := NewInjectable[int, int](
		countingProduce,
		resettingHandle,
		InjectState{"i": 10},
		WithBufferCapacity(1),
	)
	startInjected(t, p)

	waitFor(t, time.Second, func() bool { return p.Buffered() == 1 }, "buffer to fill")

	if err := p.Send(0); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// Drain any stale pre-message values, then the sequence restarts at 0.
	found := false
	for i := 0; i < 10; i++ {
		if mustGet(t, p) == 0 {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("sequence never restarted at 0")
	}
	for i := 1; i <= 5; i++ {
		if v := mustGet(t, p); v != i {
			t.Fatalf("expected %d, got %d", i, v)
		}
	}
}

func TestInjectable_PureStep(t *testing.T) {
	// A step that returns its snapshot unchanged never advances the state.
	produce := func(s InjectState) (InjectState, int, error) {
		i, _ := s["i"].(int)
		return s, i, nil
	}
	p := NewInjectable[int, int](produce, nil, InjectState{"i": 42}, WithBufferCapacity(2))
	startInjected(t, p)

	for i := 0; i < 5; i++ {
		if v := mustGet(t, p); v != 42 {
			t.Fatalf("expected constant 42, got %d", v)
		}
	}
}

func TestInjectable_NilProduce(t *testing.T) {
	p := NewInjectable[int, int](nil, resettingHandle, nil, WithBufferCapacity(2))
	startInjected(t, p)

	for i := 0; i < 3; i++ {
		if v := mustGet(t, p); v != 0 {
			t.Fatalf("expected zero value, got %d", v)
		}
	}
}

func TestInjectable_NilHandle(t *testing.T) {
	p := NewInjectable[int, int](countingProduce, nil, nil, WithBufferCapacity(1))
	startInjected(t, p)

	if v := mustGet(t, p); v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}

	// With no handler the message is dropped: no error item, no reset.
	if err := p.Send(99); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	waitFor(t, time.Second, func() bool { return p.Pending() == 0 }, "inbound drain")

	for i := 1; i <= 5; i++ {
		if v := mustGet(t, p); v != i {
			t.Fatalf("expected %d, got %d", i, v)
		}
	}
}

func TestInjectable_FailedHandleKeepsState(t *testing.T) {
	handle := func(msg int, s InjectState) (InjectState, error) {
		// Mutate the snapshot, then fail: none of it may stick.
		s["i"] = msg
		return nil, errors.New("rejected")
	}
	p := NewInjectable[int, int](countingProduce, handle, InjectState{"i": 100}, WithBufferCapacity(1))
	startInjected(t, p)

	if v := mustGet(t, p); v != 100 {
		t.Fatalf("expected 100, got %d", v)
	}

	if err := p.Send(0); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// The rejection surfaces as an error item; values around it continue
	// the original sequence from the untouched state.
	sawError := false
	expected := 101
	for i := 0; i < 6; i++ {
		v, err := p.Get(getTimeout)
		if err != nil {
			var handleErr *MessageHandlingError
			if !errors.As(err, &handleErr) {
				t.Fatalf("expected *MessageHandlingError, got %v", err)
			}
			sawError = true
			continue
		}
		if v != expected {
			t.Fatalf("expected %d, got %d", expected, v)
		}
		expected++
	}
	if !sawError {
		t.Error("handler failure never surfaced through Get")
	}
}

func TestInjectable_FailedProduceKeepsState(t *testing.T) {
	calls := 0
	produce := func(s InjectState) (InjectState, int, error) {
		calls++
		if calls == 2 {
			s["i"] = 9999 // must not stick
			return s, 0, errors.New("step rejected")
		}
		return countingProduce(s)
	}
	p := NewInjectable[int, int](produce, nil, nil, WithBufferCapacity(3))
	startInjected(t, p)

	if v := mustGet(t, p); v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}

	_, err := p.Get(getTimeout)
	var stepErr *ProductionStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *ProductionStepError, got %v", err)
	}

	// The failed call's mutations were confined to its snapshot.
	if v := mustGet(t, p); v != 1 {
		t.Errorf("expected 1 after failed step, got %d", v)
	}
}
