package redis

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker is open and the cooldown
// has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the circuit breaker state. The numeric values are stable and
// exported as a gauge, so the order must not change.
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls rejected until the cooldown elapses
	StateHalfOpen              // a single probe call is allowed through
)

var stateNames = [...]string{"closed", "open", "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// CircuitBreaker trips after a run of consecutive failures and rejects
// calls for a cooldown period. Once the cooldown elapses the next call is
// let through as a probe: success closes the breaker, failure reopens it.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       State
	consecutive int
	lastFailure time.Time

	limit    int
	cooldown time.Duration

	// OnStateChange, when set, observes every transition. Called with the
	// breaker lock held; keep it fast.
	OnStateChange func(from, to State)
}

// NewCircuitBreaker builds a closed breaker that opens after limit
// consecutive failures and probes again after cooldown.
func NewCircuitBreaker(limit int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{limit: limit, cooldown: cooldown}
}

// CurrentState reports the breaker state.
func (cb *CircuitBreaker) CurrentState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs fn unless the breaker is open, and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

// allow decides whether a call may proceed, moving an expired open
// breaker to half-open.
func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.lastFailure) <= cb.cooldown {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state == StateHalfOpen {
			cb.transition(StateClosed)
		}
		cb.consecutive = 0
		return
	}

	cb.consecutive++
	cb.lastFailure = time.Now()
	if cb.state == StateHalfOpen || cb.consecutive >= cb.limit {
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if to == StateClosed {
		cb.consecutive = 0
	}
	if cb.OnStateChange != nil {
		cb.OnStateChange(from, to)
	}
}
