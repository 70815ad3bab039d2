package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		amount  string
		source  string
		dest    string
		wantErr bool
	}{
		{name: "with swap prefix", command: "swap 1.5 USDC to WAVE", amount: "1.5", source: "USDC", dest: "WAVE"},
		{name: "without prefix", command: "0.25 SOL to USDC", amount: "0.25", source: "SOL", dest: "USDC"},
		{name: "lowercase", command: "swap 1.5 usdc to wave", amount: "1.5", source: "USDC", dest: "WAVE"},
		{name: "integer amount", command: "100 WAVE to USDT", amount: "100", source: "WAVE", dest: "USDT"},
		{name: "missing dest", command: "swap 1.5 USDC", wantErr: true},
		{name: "garbage", command: "please swap my tokens", wantErr: true},
		{name: "empty", command: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseSwapCommand(tt.command)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, req.Amount)
			assert.Equal(t, tt.source, req.SourceToken)
			assert.Equal(t, tt.dest, req.DestToken)
		})
	}
}
