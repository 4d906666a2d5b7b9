// Package resilience provides failure-handling patterns for the publish
// path: a circuit breaker that converts a persistently failing output sink
// into backpressure instead of dropped records.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"    // Normal operation
	CircuitOpen     CircuitState = "OPEN"      // Failing, rejecting publishes
	CircuitHalfOpen CircuitState = "HALF_OPEN" // Probing whether the sink recovered
)

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// SuccessThreshold is the number of successes in half-open state to close.
	SuccessThreshold int
	// OpenTimeout is how long to wait before probing an open circuit.
	OpenTimeout time.Duration
}

// DefaultBreakerConfig returns sensible defaults for sink publishing.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Second,
	}
}

// ErrCircuitOpen is returned when the circuit is open and the publish is
// rejected without being attempted.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker implements the circuit breaker pattern around sink publishes.
type Breaker struct {
	name   string
	config BreakerConfig

	mu              sync.RWMutex
	state           CircuitState
	failures        int
	successes       int
	lastFailureTime time.Time
	lastStateChange time.Time

	totalRequests  int64
	totalFailures  int64
	totalSuccesses int64
	totalRejected  int64
}

// NewBreaker creates a new circuit breaker.
func NewBreaker(name string, config BreakerConfig) *Breaker {
	return &Breaker{
		name:            name,
		config:          config,
		state:           CircuitClosed,
		lastStateChange: time.Now(),
	}
}

// Execute runs fn under circuit breaker protection. When the circuit is
// open, fn is not invoked and ErrCircuitOpen is returned immediately so the
// caller can hold the record and apply backpressure.
func (cb *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cb.allowRequest(); err != nil {
		return err
	}

	cb.mu.Lock()
	cb.totalRequests++
	cb.mu.Unlock()

	if err := fn(); err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *Breaker) allowRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if time.Since(cb.lastFailureTime) > cb.config.OpenTimeout {
			cb.transitionTo(CircuitHalfOpen)
			return nil
		}
		cb.totalRejected++
		return ErrCircuitOpen
	default:
		return nil
	}
}

func (cb *Breaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalSuccesses++

	switch cb.state {
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionTo(CircuitClosed)
		}
	case CircuitClosed:
		cb.failures = 0
	}
}

func (cb *Breaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalFailures++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		// Any failure in half-open goes back to open
		cb.transitionTo(CircuitOpen)
	}
}

func (cb *Breaker) transitionTo(state CircuitState) {
	cb.state = state
	cb.lastStateChange = time.Now()
	cb.failures = 0
	cb.successes = 0
}

// State returns the current circuit state.
func (cb *Breaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Name returns the circuit breaker name.
func (cb *Breaker) Name() string {
	return cb.name
}

// BreakerStats contains circuit breaker statistics.
type BreakerStats struct {
	Name            string
	State           CircuitState
	TotalRequests   int64
	TotalSuccesses  int64
	TotalFailures   int64
	TotalRejected   int64
	LastStateChange time.Time
}

// Stats returns circuit breaker statistics.
func (cb *Breaker) Stats() BreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return BreakerStats{
		Name:            cb.name,
		State:           cb.state,
		TotalRequests:   cb.totalRequests,
		TotalSuccesses:  cb.totalSuccesses,
		TotalFailures:   cb.totalFailures,
		TotalRejected:   cb.totalRejected,
		LastStateChange: cb.lastStateChange,
	}
}
