package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBySymbolAndMint(t *testing.T) {
	bySymbol, err := Resolve("usdc")
	require.NoError(t, err)
	assert.Equal(t, "USDC", bySymbol.Symbol)
	assert.EqualValues(t, 6, bySymbol.Decimals)

	byMint, err := Resolve(bySymbol.Mint)
	require.NoError(t, err)
	assert.Equal(t, bySymbol, byMint)
}

func TestResolveUnknownToken(t *testing.T) {
	_, err := Resolve("DOGE")
	assert.ErrorContains(t, err, "not supported")
}

func TestToBaseUnits(t *testing.T) {
	usdc, err := Resolve("USDC")
	require.NoError(t, err)

	base, err := usdc.ToBaseUnits("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000", base)
}

func TestToBaseUnitsRejectsExcessPrecision(t *testing.T) {
	usdc, err := Resolve("USDC")
	require.NoError(t, err)

	_, err = usdc.ToBaseUnits("1.1234567")
	assert.ErrorContains(t, err, "decimal places")
}

func TestFromBaseUnits(t *testing.T) {
	wave, err := Resolve("WAVE")
	require.NoError(t, err)

	display, err := wave.FromBaseUnits("42000000")
	require.NoError(t, err)
	assert.Equal(t, "42", display)
}
