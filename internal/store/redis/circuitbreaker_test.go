package redis

import (
	"errors"
	"testing"
	"time"
)

var errProbe = errors.New("backend down")

func trip(t *testing.T, cb *CircuitBreaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := cb.Execute(func() error { return errProbe }); err != errProbe {
			t.Fatalf("failure %d: expected errProbe, got %v", i, err)
		}
	}
}

func TestCircuitBreaker_OpensAtLimit(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)
	if got := cb.CurrentState(); got != StateClosed {
		t.Fatalf("new breaker state = %v, want closed", got)
	}

	trip(t, cb, 2)
	if got := cb.CurrentState(); got != StateClosed {
		t.Errorf("state after 2 of 3 failures = %v, want closed", got)
	}

	trip(t, cb, 1)
	if got := cb.CurrentState(); got != StateOpen {
		t.Errorf("state after 3 failures = %v, want open", got)
	}

	// While open, the wrapped function must not run at all.
	ran := false
	err := cb.Execute(func() error { ran = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker returned %v, want ErrCircuitOpen", err)
	}
	if ran {
		t.Error("open breaker executed the call")
	}
}

func TestCircuitBreaker_ProbeClosesAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	trip(t, cb, 2)

	time.Sleep(60 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe after cooldown: %v", err)
	}
	if got := cb.CurrentState(); got != StateClosed {
		t.Errorf("state after successful probe = %v, want closed", got)
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	trip(t, cb, 2)

	time.Sleep(60 * time.Millisecond)
	cb.Execute(func() error { return errProbe })

	if got := cb.CurrentState(); got != StateOpen {
		t.Errorf("state after failed probe = %v, want open", got)
	}
}

func TestCircuitBreaker_SuccessResetsTheRun(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)

	trip(t, cb, 2)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("success call: %v", err)
	}
	trip(t, cb, 2)

	if got := cb.CurrentState(); got != StateClosed {
		t.Errorf("state = %v, want closed (failure run was broken by a success)", got)
	}
}

func TestCircuitBreaker_TransitionCallback(t *testing.T) {
	var seen []State
	cb := NewCircuitBreaker(1, 50*time.Millisecond)
	cb.OnStateChange = func(from, to State) { seen = append(seen, to) }

	trip(t, cb, 1)
	time.Sleep(60 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}

	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", seen, want)
		}
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(9):      "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
