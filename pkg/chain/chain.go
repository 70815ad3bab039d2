// Package chain reads transaction confirmation state from the public ledger
// and submits signed transactions. All RPC traffic goes through the shared
// resilience wrapper under the "solana-rpc" endpoint key.
package chain

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wave-swap/pkg/resilience"
)

// EndpointKey identifies the public ledger RPC in the breaker table.
const EndpointKey = "solana-rpc"

// ConfirmationLevel mirrors the ledger's commitment ladder. Processed
// transactions are still reported as LevelNone; only confirmed and finalized
// count as observed.
type ConfirmationLevel string

const (
	LevelNone      ConfirmationLevel = "none"
	LevelConfirmed ConfirmationLevel = "confirmed"
	LevelFinalized ConfirmationLevel = "finalized"
)

// Status is the outcome of a single confirmation probe.
type Status struct {
	Found   bool
	ExecErr string // non-empty when the transaction executed and failed on-chain
	Level   ConfirmationLevel
}

// rpcClient is the slice of the Solana RPC surface this package uses.
type rpcClient interface {
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	SendRawTransactionWithOpts(ctx context.Context, transaction []byte, opts rpc.TransactionOpts) (solana.Signature, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
}

// Client probes and submits through a single RPC endpoint.
type Client struct {
	rpc     rpcClient
	caller  *resilience.Caller
	readCfg resilience.Config
	txnCfg  resilience.Config
	log     zerolog.Logger
}

// NewClient connects to the given RPC URL.
func NewClient(rpcURL string, caller *resilience.Caller) *Client {
	return newClient(rpc.New(rpcURL), caller)
}

func newClient(rpcClient rpcClient, caller *resilience.Caller) *Client {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &Client{
		rpc:     rpcClient,
		caller:  caller,
		readCfg: resilience.Read(),
		txnCfg:  resilience.Transactional(),
		log:     zerolog.New(out).With().Timestamp().Str("component", "chain").Logger(),
	}
}

// ConfirmationStatus probes the ledger for a transaction signature. A non-nil
// error means the probe itself could not complete after retries; callers that
// need to treat that the same as "not yet observed" should use
// ConfirmationStatusLenient instead.
func (c *Client) ConfirmationStatus(ctx context.Context, signature string) (Status, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return Status{}, fmt.Errorf("invalid transaction signature: %w", err)
	}

	result, err := resilience.Do(ctx, c.caller, EndpointKey, c.readCfg,
		func(ctx context.Context) (*rpc.GetSignatureStatusesResult, error) {
			// Search full history: recovery lookups can be older than the
			// node's recent-signature cache window.
			return c.rpc.GetSignatureStatuses(ctx, true, sig)
		})
	if err != nil {
		return Status{}, err
	}

	if len(result.Value) == 0 || result.Value[0] == nil {
		return Status{Found: false, Level: LevelNone}, nil
	}

	entry := result.Value[0]
	status := Status{Found: true, Level: LevelNone}
	if entry.Err != nil {
		status.ExecErr = fmt.Sprintf("%v", entry.Err)
	}
	switch entry.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed:
		status.Level = LevelConfirmed
	case rpc.ConfirmationStatusFinalized:
		status.Level = LevelFinalized
	}
	return status, nil
}

// ConfirmationStatusLenient swallows probe transport failures into a
// not-found status, so poll-style callers can treat "probe unavailable" the
// same as "not yet observed". Callers concluding a transaction was dropped
// must also take elapsed wall-clock time into account.
func (c *Client) ConfirmationStatusLenient(ctx context.Context, signature string) Status {
	status, err := c.ConfirmationStatus(ctx, signature)
	if err != nil {
		c.log.Warn().Err(err).Str("signature", signature).Msg("confirmation probe unavailable")
		return Status{Found: false, Level: LevelNone}
	}
	return status
}

// SubmitTransaction submits a fully signed transaction and returns its
// signature. Retrying the same signed bytes is safe: the signature is
// deterministic and the ledger de-duplicates it within the blockhash window.
func (c *Client) SubmitTransaction(ctx context.Context, signedTx []byte) (string, error) {
	sig, err := resilience.Do(ctx, c.caller, EndpointKey, c.txnCfg,
		func(ctx context.Context) (solana.Signature, error) {
			return c.rpc.SendRawTransactionWithOpts(ctx, signedTx, rpc.TransactionOpts{
				PreflightCommitment: rpc.CommitmentConfirmed,
			})
		})
	if err != nil {
		return "", err
	}
	c.log.Info().Str("signature", sig.String()).Msg("transaction submitted")
	return sig.String(), nil
}

// AwaitConfirmation polls the probe until the signature reaches at least
// confirmed commitment, or the bounded attempt budget runs out. Probe
// transport failures are treated as "not yet observed".
func (c *Client) AwaitConfirmation(ctx context.Context, signature string, interval time.Duration, maxAttempts int) (Status, error) {
	var last Status
	for attempt := 0; attempt < maxAttempts; attempt++ {
		last = c.ConfirmationStatusLenient(ctx, signature)
		if last.Found && last.ExecErr != "" {
			return last, fmt.Errorf("transaction %s failed on-chain: %s", signature, last.ExecErr)
		}
		if last.Level == LevelConfirmed || last.Level == LevelFinalized {
			return last, nil
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}
	return last, fmt.Errorf("transaction %s not confirmed after %d probes", signature, maxAttempts)
}

// TokenBalance returns the owner's public balance for a token mint, in
// display units.
func (c *Client) TokenBalance(ctx context.Context, owner, mint string) (decimal.Decimal, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid owner address: %w", err)
	}
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid mint address: %w", err)
	}
	tokenAccount, _, err := solana.FindAssociatedTokenAddress(ownerKey, mintKey)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to derive associated token address: %w", err)
	}

	result, err := resilience.Do(ctx, c.caller, EndpointKey, c.readCfg,
		func(ctx context.Context) (*rpc.GetTokenAccountBalanceResult, error) {
			return c.rpc.GetTokenAccountBalance(ctx, tokenAccount, rpc.CommitmentConfirmed)
		})
	if err != nil {
		return decimal.Zero, err
	}
	if result.Value == nil {
		return decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(result.Value.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse token balance: %w", err)
	}
	return amount.Shift(-int32(result.Value.Decimals)), nil
}

// NativeBalance returns the owner's SOL balance in display units.
func (c *Client) NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid owner address: %w", err)
	}

	result, err := resilience.Do(ctx, c.caller, EndpointKey, c.readCfg,
		func(ctx context.Context) (*rpc.GetBalanceResult, error) {
			return c.rpc.GetBalance(ctx, ownerKey, rpc.CommitmentConfirmed)
		})
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(int64(result.Value), -9), nil
}
