// Package resilience wraps calls to volatile upstream endpoints with retry,
// exponential backoff and a per-endpoint circuit breaker. Both upstream
// classes of this system (the Solana RPC and the privacy-pool HTTP API) go
// through one Caller instance, each under its own endpoint key, so a failing
// pool never trips the breaker for the chain and vice versa.
package resilience

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config controls a single call class against one endpoint.
type Config struct {
	MaxAttempts      int
	BaseDelay        time.Duration
	Timeout          time.Duration
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// Transactional returns the retry budget for state-changing calls.
func Transactional() Config {
	return Config{
		MaxAttempts:      3,
		BaseDelay:        500 * time.Millisecond,
		Timeout:          15 * time.Second,
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
}

// Read returns the retry budget for idempotent read calls such as status polling.
func Read() Config {
	return Config{
		MaxAttempts:      5,
		BaseDelay:        500 * time.Millisecond,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
}

// breakerState tracks consecutive exhausted call sequences for one endpoint.
type breakerState struct {
	open                bool
	consecutiveFailures int
	lastFailure         time.Time
}

// Caller owns the breaker table. One instance is constructed per process and
// injected into every upstream client; the table is the only mutable state
// shared across concurrent swap executions.
type Caller struct {
	mu       sync.Mutex
	breakers map[string]*breakerState
	log      zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewCaller creates a Caller with an empty breaker table.
func NewCaller() *Caller {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &Caller{
		breakers: make(map[string]*breakerState),
		log:      zerolog.New(out).With().Timestamp().Str("component", "resilience").Logger(),
		now:      time.Now,
	}
}

// Do runs fn against endpoint under cfg's retry budget. Each attempt carries
// a hard timeout. An exhausted sequence counts as one breaker failure; a
// single success closes the breaker and resets the failure count.
func Do[T any](ctx context.Context, c *Caller, endpoint string, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := c.checkBreaker(endpoint, cfg); err != nil {
		c.log.Warn().Str("endpoint", endpoint).Msg("circuit open, failing fast")
		return zero, err
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		result, err := fn(attemptCtx)
		cancel()

		if err == nil {
			c.recordSuccess(endpoint)
			c.log.Debug().Str("endpoint", endpoint).Int("attempt", attempt).Msg("call succeeded")
			return result, nil
		}
		var permanent *PermanentError
		if errors.As(err, &permanent) {
			// The endpoint is reachable; this is a domain refusal.
			c.recordSuccess(endpoint)
			c.log.Debug().Str("endpoint", endpoint).Int("attempt", attempt).Err(permanent.Err).Msg("permanent refusal, not retrying")
			return zero, permanent.Err
		}
		lastErr = err
		c.log.Warn().Str("endpoint", endpoint).Int("attempt", attempt).Err(err).Msg("call failed")

		if ctx.Err() != nil {
			break
		}
		if attempt < cfg.MaxAttempts {
			delay := cfg.BaseDelay * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				lastErr = ctx.Err()
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	if ctx.Err() != nil {
		// A caller-initiated abort is not an upstream failure: the sequence
		// was cut short, not exhausted, so the breaker does not count it.
		return zero, lastErr
	}

	c.recordFailure(endpoint, cfg)
	return zero, &UpstreamUnavailableError{Endpoint: endpoint, Attempts: cfg.MaxAttempts, Last: lastErr}
}

// checkBreaker fails fast while the breaker is open and the recovery window
// has not elapsed. Once the window passes, the breaker half-opens: the next
// call is attempted and its outcome decides the new state.
func (c *Caller) checkBreaker(endpoint string, cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, exists := c.breakers[endpoint]
	if !exists || !state.open {
		return nil
	}

	elapsed := c.now().Sub(state.lastFailure)
	if elapsed < cfg.RecoveryTimeout {
		return &CircuitOpenError{Endpoint: endpoint, RetryAfter: cfg.RecoveryTimeout - elapsed}
	}
	// Half-open: allow the attempt through.
	return nil
}

func (c *Caller) recordSuccess(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, exists := c.breakers[endpoint]
	if !exists {
		return
	}
	if state.open {
		c.log.Info().Str("endpoint", endpoint).Msg("circuit closed after successful call")
	}
	state.open = false
	state.consecutiveFailures = 0
}

func (c *Caller) recordFailure(endpoint string, cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, exists := c.breakers[endpoint]
	if !exists {
		state = &breakerState{}
		c.breakers[endpoint] = state
	}
	state.consecutiveFailures++
	state.lastFailure = c.now()
	if state.consecutiveFailures >= cfg.FailureThreshold {
		if !state.open {
			c.log.Error().
				Str("endpoint", endpoint).
				Int("consecutive_failures", state.consecutiveFailures).
				Msg("circuit breaker opened")
		}
		state.open = true
	}
}

// BreakerStatus is a read-only snapshot for status displays.
type BreakerStatus struct {
	Open                bool
	ConsecutiveFailures int
	LastFailure         time.Time
}

// Status reports the breaker state for an endpoint.
func (c *Caller) Status(endpoint string) BreakerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, exists := c.breakers[endpoint]
	if !exists {
		return BreakerStatus{}
	}
	return BreakerStatus{
		Open:                state.open,
		ConsecutiveFailures: state.consecutiveFailures,
		LastFailure:         state.lastFailure,
	}
}
