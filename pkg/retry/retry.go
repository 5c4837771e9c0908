package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Policy describes how a caller retries a provider call. Adapters never retry on their own.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Retriable reports whether err is transient. A nil Retriable retries nothing.
	Retriable func(error) bool
}

func (p Policy) isRetriable(err error) bool {
	return p.Retriable != nil && p.Retriable(err)
}

func RetryWithBackoff[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts <= 0 {
		return zero, fmt.Errorf("max attempts must be > 0, got %d", p.MaxAttempts)
	}
	var lastErr error

	for i := range p.MaxAttempts {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !p.isRetriable(err) {
			return zero, err
		}

		if i < p.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff(p.BaseDelay, i)):
			}
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", p.MaxAttempts, lastErr)
}

// Do is RetryWithBackoff for calls without a result.
func Do(ctx context.Context, p Policy, fn func() error) error {
	_, err := RetryWithBackoff(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int63n(int64(base))) //nolint:gosec // jitter doesn't need crypto rand
	return time.Duration(math.Pow(2, float64(attempt)))*base + jitter
}

type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops a sync pass from hammering a provider that keeps failing transiently.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	lastFailureTime  time.Time
	retriable        func(error) bool
	now              func() time.Time
}

func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, retriable func(error) bool) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		retriable:        retriable,
		now:              time.Now,
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
			cb.state = StateHalfOpen
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && cb.retriable != nil && cb.retriable(err) {
		cb.failureCount++
		cb.lastFailureTime = cb.now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.failureThreshold {
			cb.state = StateOpen
		}
		return err
	}

	if err == nil {
		cb.failureCount = 0
		cb.state = StateClosed
	}

	return err
}
