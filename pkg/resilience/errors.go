package resilience

import (
	"fmt"
	"time"
)

// PermanentError marks an attempt error that must not be retried and must
// not count against the endpoint's breaker: the upstream answered, it just
// answered with a domain refusal (e.g. an HTTP 4xx).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err as non-retryable.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// CircuitOpenError is returned without any network contact when the breaker
// for an endpoint is open and the recovery window has not yet elapsed.
type CircuitOpenError struct {
	Endpoint   string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for %s, retry in %s", e.Endpoint, e.RetryAfter.Round(time.Second))
}

// UpstreamUnavailableError is returned once every retry attempt against an
// endpoint has been exhausted. Last holds the final attempt's error.
type UpstreamUnavailableError struct {
	Endpoint string
	Attempts int
	Last     error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable after %d attempts: %v", e.Endpoint, e.Attempts, e.Last)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Last
}
