package pool

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey indicates a configuration problem, not a network one: the
// pool rejects every unauthenticated call, so there is no point dialing.
var ErrMissingAPIKey = errors.New("privacy pool API key is not configured")

// QuoteUnavailableError means the pool cannot price the pair, because of
// insufficient liquidity or an unsupported token.
type QuoteUnavailableError struct {
	Reason string
}

func (e *QuoteUnavailableError) Error() string {
	return fmt.Sprintf("quote unavailable: %s", e.Reason)
}

// SettlementFailedError is a domain-level failure reported by the pool
// itself: the swap reached the pool and the pool says it failed. It is
// terminal and never retried automatically.
type SettlementFailedError struct {
	OrderID string
	Details string
}

func (e *SettlementFailedError) Error() string {
	return fmt.Sprintf("swap settlement failed for order %s: %s", e.OrderID, e.Details)
}

// PollingTimeoutError means the poll budget ran out while the order was
// still pending. The swap may still settle; the caller must route the user
// to recovery rather than present this as a definitive failure.
type PollingTimeoutError struct {
	OrderID  string
	Attempts int
}

func (e *PollingTimeoutError) Error() string {
	return fmt.Sprintf("order %s still pending after %d polls; status unknown, use recovery", e.OrderID, e.Attempts)
}

// apiError carries a non-2xx response body through the retry layer.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}
