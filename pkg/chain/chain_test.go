package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wave-swap/pkg/resilience"
)

// A syntactically valid base58 signature for probe tests.
const testSignature = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"

type fakeRPC struct {
	statuses    []*rpc.SignatureStatusesResult
	statusErr   error
	statusCalls int

	submitSig solana.Signature
	submitErr error

	tokenBalance *rpc.GetTokenAccountBalanceResult
}

func (f *fakeRPC) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &rpc.GetSignatureStatusesResult{Value: f.statuses}, nil
}

func (f *fakeRPC) SendRawTransactionWithOpts(ctx context.Context, transaction []byte, opts rpc.TransactionOpts) (solana.Signature, error) {
	return f.submitSig, f.submitErr
}

func (f *fakeRPC) GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	return &rpc.GetBalanceResult{Value: 2_500_000_000}, nil
}

func (f *fakeRPC) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	return f.tokenBalance, nil
}

// newTestClient builds a client with millisecond retry delays so exhausted
// sequences do not slow the suite down.
func newTestClient(fake *fakeRPC) *Client {
	client := newClient(fake, resilience.NewCaller())
	client.readCfg.BaseDelay = time.Millisecond
	client.txnCfg.BaseDelay = time.Millisecond
	return client
}

func TestConfirmationStatusMapsLevels(t *testing.T) {
	tests := []struct {
		name      string
		entry     *rpc.SignatureStatusesResult
		wantFound bool
		wantLevel ConfirmationLevel
		wantErr   string
	}{
		{
			name:      "not found",
			entry:     nil,
			wantFound: false,
			wantLevel: LevelNone,
		},
		{
			name:      "processed counts as none",
			entry:     &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
			wantFound: true,
			wantLevel: LevelNone,
		},
		{
			name:      "confirmed",
			entry:     &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
			wantFound: true,
			wantLevel: LevelConfirmed,
		},
		{
			name:      "finalized",
			entry:     &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
			wantFound: true,
			wantLevel: LevelFinalized,
		},
		{
			name: "execution error",
			entry: &rpc.SignatureStatusesResult{
				ConfirmationStatus: rpc.ConfirmationStatusFinalized,
				Err:                map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
			},
			wantFound: true,
			wantLevel: LevelFinalized,
			wantErr:   "InstructionError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{tt.entry}}
			client := newTestClient(fake)

			status, err := client.ConfirmationStatus(context.Background(), testSignature)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, status.Found)
			assert.Equal(t, tt.wantLevel, status.Level)
			if tt.wantErr != "" {
				assert.Contains(t, status.ExecErr, tt.wantErr)
			} else {
				assert.Empty(t, status.ExecErr)
			}
		})
	}
}

func TestConfirmationStatusRejectsBadSignature(t *testing.T) {
	client := newTestClient(&fakeRPC{})
	_, err := client.ConfirmationStatus(context.Background(), "not-a-signature")
	require.Error(t, err)
}

func TestConfirmationStatusStrictReturnsTransportError(t *testing.T) {
	fake := &fakeRPC{statusErr: errors.New("connection refused")}
	client := newTestClient(fake)

	_, err := client.ConfirmationStatus(context.Background(), testSignature)
	var unavailable *resilience.UpstreamUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, EndpointKey, unavailable.Endpoint)
}

func TestConfirmationStatusLenientSwallowsTransportError(t *testing.T) {
	fake := &fakeRPC{statusErr: errors.New("connection refused")}
	client := newTestClient(fake)

	status := client.ConfirmationStatusLenient(context.Background(), testSignature)
	assert.False(t, status.Found)
	assert.Equal(t, LevelNone, status.Level)
}

func TestAwaitConfirmationBounded(t *testing.T) {
	fake := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{nil}}
	client := newTestClient(fake)

	start := time.Now()
	_, err := client.AwaitConfirmation(context.Background(), testSignature, time.Millisecond, 3)
	require.Error(t, err)
	assert.Equal(t, 3, fake.statusCalls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTokenBalanceHandlesAmountsBeyondInt64(t *testing.T) {
	fake := &fakeRPC{tokenBalance: &rpc.GetTokenAccountBalanceResult{
		Value: &rpc.UiTokenAmount{Amount: "18446744073709551615", Decimals: 6},
	}}
	client := newTestClient(fake)

	balance, err := client.TokenBalance(context.Background(),
		"So11111111111111111111111111111111111111112",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.NoError(t, err)
	assert.True(t, balance.IsPositive())
	assert.Equal(t, "18446744073709551.615", balance.String())
}

func TestSubmitTransaction(t *testing.T) {
	sig, err := solana.SignatureFromBase58(testSignature)
	require.NoError(t, err)

	client := newTestClient(&fakeRPC{submitSig: sig})
	got, err := client.SubmitTransaction(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, testSignature, got)
}
