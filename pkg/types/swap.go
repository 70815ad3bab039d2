package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultSlippageBps is applied when a request does not specify a tolerance.
const DefaultSlippageBps = 50

// SwapRequest represents a user's private swap intent.
// Amount is in display units (e.g. "1.5" USDC); conversion to base units
// happens during planning, once token decimals are known.
type SwapRequest struct {
	Amount      string
	SourceToken string
	DestToken   string
	Owner       string // public wallet identity (base58)
	SlippageBps uint32
}

// Validate checks the request shape before any network work is done.
func (r *SwapRequest) Validate() error {
	if r.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if r.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if r.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if r.SourceToken == r.DestToken {
		return fmt.Errorf("source and destination tokens must differ")
	}
	if r.Owner == "" {
		return fmt.Errorf("owner identity is required")
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than 0")
	}
	return nil
}

// Slippage returns the effective slippage tolerance in basis points.
func (r *SwapRequest) Slippage() uint32 {
	if r.SlippageBps == 0 {
		return DefaultSlippageBps
	}
	return r.SlippageBps
}
