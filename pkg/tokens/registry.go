package tokens

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Metadata describes a token supported by the privacy pool.
type Metadata struct {
	Symbol   string
	Name     string
	Mint     string
	Decimals int32
}

// The pool supports a fixed token set; mints are mainnet addresses.
var registry = []Metadata{
	{Symbol: "SOL", Name: "Solana", Mint: "So11111111111111111111111111111111111111112", Decimals: 9},
	{Symbol: "USDC", Name: "USD Coin", Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
	{Symbol: "USDT", Name: "Tether USD", Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6},
	{Symbol: "WAVE", Name: "Wave", Mint: "WAVEhJ9qvGdGQ9DdfUypqPavd41eBk9WzF8kGhLBpUMA", Decimals: 6},
}

// Resolve looks a token up by symbol or mint address.
func Resolve(symbolOrMint string) (Metadata, error) {
	upper := strings.ToUpper(strings.TrimSpace(symbolOrMint))
	for _, meta := range registry {
		if strings.ToUpper(meta.Symbol) == upper || meta.Mint == symbolOrMint {
			return meta, nil
		}
	}
	return Metadata{}, fmt.Errorf("token %q is not supported", symbolOrMint)
}

// List returns all supported tokens.
func List() []Metadata {
	out := make([]Metadata, len(registry))
	copy(out, registry)
	return out
}

// ToBaseUnits converts a display-unit amount string to base units.
// The amount must not have more fractional digits than the token carries.
func (m Metadata) ToBaseUnits(displayAmount string) (string, error) {
	amount, err := decimal.NewFromString(displayAmount)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", displayAmount, err)
	}
	scaled := amount.Shift(m.Decimals)
	if !scaled.IsInteger() {
		return "", fmt.Errorf("amount %s has more than %d decimal places", displayAmount, m.Decimals)
	}
	return scaled.String(), nil
}

// FromBaseUnits converts a base-unit amount string to display units.
func (m Metadata) FromBaseUnits(baseAmount string) (string, error) {
	amount, err := decimal.NewFromString(baseAmount)
	if err != nil {
		return "", fmt.Errorf("invalid base amount %q: %w", baseAmount, err)
	}
	return amount.Shift(-m.Decimals).String(), nil
}
