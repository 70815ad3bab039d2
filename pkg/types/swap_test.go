package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRequest() *SwapRequest {
	return &SwapRequest{
		Amount:      "1.5",
		SourceToken: "USDC",
		DestToken:   "WAVE",
		Owner:       "9aE476sH92Vz7DMPyq5WLPkrKWivxeuTKEFKd2sZZcde",
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validRequest().Validate())

	tests := []struct {
		name   string
		mutate func(*SwapRequest)
	}{
		{"missing amount", func(r *SwapRequest) { r.Amount = "" }},
		{"non-numeric amount", func(r *SwapRequest) { r.Amount = "abc" }},
		{"zero amount", func(r *SwapRequest) { r.Amount = "0" }},
		{"negative amount", func(r *SwapRequest) { r.Amount = "-1" }},
		{"missing source", func(r *SwapRequest) { r.SourceToken = "" }},
		{"missing dest", func(r *SwapRequest) { r.DestToken = "" }},
		{"same tokens", func(r *SwapRequest) { r.DestToken = r.SourceToken }},
		{"missing owner", func(r *SwapRequest) { r.Owner = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestSlippageDefaults(t *testing.T) {
	req := validRequest()
	assert.EqualValues(t, DefaultSlippageBps, req.Slippage())

	req.SlippageBps = 100
	assert.EqualValues(t, 100, req.Slippage())
}
