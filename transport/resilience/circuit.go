package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/viant/turbomcp/protocol"
)

// CircuitState is one of the three states a CircuitBreaker can be in.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	FailureThreshold int
	MinimumRequests  int
	Timeout          time.Duration
	SuccessThreshold int
}

// DefaultCircuitBreakerConfig is a conservative starting point: trip
// after 5 failures out of at least 10 requests, stay open 30s, require 2
// consecutive successes in half-open before closing again.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		MinimumRequests:  10,
		Timeout:          30 * time.Second,
		SuccessThreshold: 2,
	}
}

// CircuitBreaker implements the classic closed/open/half-open state
// machine around any operation: Allow reports whether a call may proceed,
// RecordSuccess/RecordFailure update the tally.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu        sync.Mutex
	state     CircuitState
	failures  int
	requests  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker creates a CircuitBreaker in the Closed state.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed}
}

// ErrCircuitOpen is returned by Allow when the breaker is tripped.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// Allow reports whether a call may proceed, transitioning Open -> HalfOpen
// once cfg.Timeout has elapsed.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case CircuitOpen:
		if time.Since(b.openedAt) >= b.cfg.Timeout {
			b.state = CircuitHalfOpen
			b.successes = 0
			return nil
		}
		return ErrCircuitOpen
	default:
		return nil
	}
}

// RecordSuccess reports a successful call.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case CircuitHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.reset()
		}
	case CircuitClosed:
		b.requests++
		if b.requests >= b.cfg.MinimumRequests {
			b.requests, b.failures = 0, 0
		}
	}
}

// RecordFailure reports a failed call, tripping the breaker once the
// failure threshold is reached over at least MinimumRequests attempts.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case CircuitHalfOpen:
		b.trip()
	case CircuitClosed:
		b.requests++
		b.failures++
		if b.requests >= b.cfg.MinimumRequests && b.failures >= b.cfg.FailureThreshold {
			b.trip()
		}
	}
}

func (b *CircuitBreaker) trip() {
	b.state = CircuitOpen
	b.openedAt = time.Now()
}

func (b *CircuitBreaker) reset() {
	b.state = CircuitClosed
	b.requests, b.failures, b.successes = 0, 0, 0
}

// State reports the breaker's current state.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// isRetryableError classifies err via protocol.Kind when it is a
// *protocol.Error, falling back to false for opaque errors (those are
// covered by RetryConfig's pattern matching instead).
func isRetryableError(err error) bool {
	var pErr *protocol.Error
	if errors.As(err, &pErr) {
		return pErr.Retryable()
	}
	return false
}
