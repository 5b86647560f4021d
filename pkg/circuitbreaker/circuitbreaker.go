package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker rejects a call without running it.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls fail fast
	StateHalfOpen              // a few probe calls are let through
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker configuration
type Config struct {
	FailureThreshold    int           // consecutive failures before opening
	SuccessThreshold    int           // half-open successes needed to close
	Timeout             time.Duration // how long the breaker stays open
	MaxRequestsHalfOpen int           // concurrent probes while half-open
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		MaxRequestsHalfOpen: 1,
	}
}

type CircuitBreaker struct {
	config Config
	now    func() time.Time

	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	halfOpenInFlight int
	openedAt         time.Time

	onStateChange func(from, to State)
}

func New(config Config) *CircuitBreaker {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 1
	}
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 1
	}
	if config.MaxRequestsHalfOpen < 1 {
		config.MaxRequestsHalfOpen = 1
	}
	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// OnStateChange registers fn to run after every transition. fn is called
// without the breaker's lock held.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Execute runs fn through the breaker. Errors for which countable reports
// false are returned as-is without counting against the upstream; a nil
// countable counts every error.
func Execute[T any](ctx context.Context, cb *CircuitBreaker, countable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := cb.Allow(); err != nil {
		return zero, err
	}

	result, err := fn(ctx)
	cb.Record(err == nil || (countable != nil && !countable(err)))
	return result, err
}

// Allow reserves a slot for one call or returns ErrOpen. Every successful
// Allow must be followed by exactly one Record.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	var from State
	changed := false

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Timeout {
			cb.mu.Unlock()
			return ErrOpen
		}
		from, changed = cb.transitionLocked(StateHalfOpen)
		cb.halfOpenInFlight++
	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.config.MaxRequestsHalfOpen {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.halfOpenInFlight++
	}

	fn := cb.onStateChange
	to := cb.state
	cb.mu.Unlock()

	if changed && fn != nil {
		fn(from, to)
	}
	return nil
}

// Record reports the outcome of a call admitted by Allow.
func (cb *CircuitBreaker) Record(success bool) {
	cb.mu.Lock()
	var from State
	changed := false

	if cb.state == StateHalfOpen && cb.halfOpenInFlight > 0 {
		cb.halfOpenInFlight--
	}

	if success {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				from, changed = cb.transitionLocked(StateClosed)
			}
		}
	} else {
		cb.failures++
		cb.successes = 0
		switch {
		case cb.state == StateHalfOpen:
			from, changed = cb.transitionLocked(StateOpen)
		case cb.state == StateClosed && cb.failures >= cb.config.FailureThreshold:
			from, changed = cb.transitionLocked(StateOpen)
		}
	}

	fn := cb.onStateChange
	to := cb.state
	cb.mu.Unlock()

	if changed && fn != nil {
		fn(from, to)
	}
}

func (cb *CircuitBreaker) transitionLocked(to State) (State, bool) {
	from := cb.state
	if from == to {
		return from, false
	}

	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenInFlight = 0
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	return from, true
}

// State returns the current state. An open breaker whose timeout elapsed
// still reports open until the next Allow.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from, changed := cb.transitionLocked(StateClosed)
	fn := cb.onStateChange
	cb.mu.Unlock()

	if changed && fn != nil {
		fn(from, StateClosed)
	}
}
