// Package pool is the typed client for the Wave privacy-pool HTTP API:
// quoting, building deposit/swap/withdraw transactions, executing signed
// swaps, settlement polling and authenticated balance reads. All calls except
// the fire-and-forget balance-sync notify go through the shared resilience
// wrapper under the "wave-pool" endpoint key.
package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"wave-swap/pkg/resilience"
)

// EndpointKey identifies the privacy-pool API in the breaker table.
const EndpointKey = "wave-pool"

// Client talks to the privacy-pool API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	caller     *resilience.Caller
	readCfg    resilience.Config
	txnCfg     resilience.Config
	log        zerolog.Logger
}

// NewClient creates an authenticated pool client. A missing API key is a
// configuration error, distinct from any network failure.
func NewClient(baseURL, apiKey string, caller *resilience.Caller) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
		caller:     caller,
		readCfg:    resilience.Read(),
		txnCfg:     resilience.Transactional(),
		log:        zerolog.New(out).With().Timestamp().Str("component", "pool").Logger(),
	}, nil
}

// roundTrip performs one HTTP exchange and decodes the answer into out.
// Non-2xx answers are permanent for 4xx (the pool refused) and retryable for
// everything else.
func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{StatusCode: resp.StatusCode, Message: extractErrorMessage(resp.Body)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			return resilience.Permanent(apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// extractErrorMessage pulls the pool's message field out of an error body,
// falling back to the raw body.
func extractErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(body)
	if err != nil || len(raw) == 0 {
		return "empty response body"
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if message, ok := parsed["message"].(string); ok {
			return message
		}
	}
	return string(raw)
}

// call routes one API exchange through the resilience wrapper.
func call[T any](ctx context.Context, c *Client, cfg resilience.Config, method, path string, body interface{}) (T, error) {
	return resilience.Do(ctx, c.caller, EndpointKey, cfg, func(ctx context.Context) (T, error) {
		var out T
		err := c.roundTrip(ctx, method, path, body, &out)
		return out, err
	})
}

// GetQuote prices a swap. Amounts are base units.
func (c *Client) GetQuote(ctx context.Context, sourceMint, destMint, amountIn string) (Quote, error) {
	body := struct {
		SourceMint string `json:"sourceMint"`
		DestMint   string `json:"destMint"`
		AmountIn   string `json:"amountIn"`
	}{sourceMint, destMint, amountIn}

	quote, err := call[Quote](ctx, c, c.readCfg, http.MethodPost, "/v1/quote", body)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			return Quote{}, &QuoteUnavailableError{Reason: apiErr.Message}
		}
		return Quote{}, err
	}
	return quote, nil
}

// BuildDepositTransaction asks the pool for an unsigned public-chain deposit
// transaction moving amount (base units) of mint into the pool.
func (c *Client) BuildDepositTransaction(ctx context.Context, mint, amount, depositor string) (UnsignedTransaction, error) {
	body := struct {
		Mint      string `json:"mint"`
		Amount    string `json:"amount"`
		Depositor string `json:"depositor"`
	}{mint, amount, depositor}
	return call[UnsignedTransaction](ctx, c, c.readCfg, http.MethodPost, "/v1/transactions/deposit", body)
}

// BuildSwapTransaction asks the pool for an unsigned private swap transaction.
func (c *Client) BuildSwapTransaction(ctx context.Context, sourceMint, destMint, amountIn, sender, receiver string) (UnsignedTransaction, error) {
	body := struct {
		SourceMint string `json:"sourceMint"`
		DestMint   string `json:"destMint"`
		AmountIn   string `json:"amountIn"`
		Sender     string `json:"sender"`
		Receiver   string `json:"receiver"`
	}{sourceMint, destMint, amountIn, sender, receiver}
	return call[UnsignedTransaction](ctx, c, c.readCfg, http.MethodPost, "/v1/transactions/swap", body)
}

// ExecuteSignedSwap hands the signed swap to the pool. Once this returns a
// receipt the pool has custody of the intent: the order id must be retained
// even if every later poll fails.
func (c *Client) ExecuteSignedSwap(ctx context.Context, signedTx []byte, details OrderDetails) (OrderReceipt, error) {
	body := struct {
		Transaction []byte       `json:"transaction"`
		Order       OrderDetails `json:"order"`
	}{signedTx, details}

	receipt, err := call[OrderReceipt](ctx, c, c.txnCfg, http.MethodPost, "/v1/swap/execute", body)
	if err != nil {
		return OrderReceipt{}, err
	}
	c.log.Info().Str("order_id", receipt.OrderID).Msg("swap accepted by pool")
	return receipt, nil
}

// GetOrderStatus reads the settlement state of an in-flight order.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (OrderStatus, error) {
	return call[OrderStatus](ctx, c, c.readCfg, http.MethodGet, "/v1/orders/"+orderID, nil)
}

// BuildWithdrawTransaction asks the pool for an unsigned withdrawal moving
// amount (base units) of mint back to the withdrawer's public wallet.
func (c *Client) BuildWithdrawTransaction(ctx context.Context, mint, amount, withdrawer string) (UnsignedTransaction, error) {
	body := struct {
		Mint       string `json:"mint"`
		Amount     string `json:"amount"`
		Withdrawer string `json:"withdrawer"`
	}{mint, amount, withdrawer}
	return call[UnsignedTransaction](ctx, c, c.readCfg, http.MethodPost, "/v1/transactions/withdraw", body)
}

// GetPrivateBalance reads the identity's confidential balances for the given
// mints. The signed-message proof is produced by the wallet, out of band.
func (c *Client) GetPrivateBalance(ctx context.Context, identity string, mints []string, proof SignedMessage) (map[string]PrivateBalance, error) {
	body := struct {
		Identity string        `json:"identity"`
		Mints    []string      `json:"mints"`
		Proof    SignedMessage `json:"proof"`
	}{identity, mints, proof}
	return call[map[string]PrivateBalance](ctx, c, c.readCfg, http.MethodPost, "/v1/balances", body)
}

// GetKnownTokenMints lists the mints the pool knows for an identity.
func (c *Client) GetKnownTokenMints(ctx context.Context, identity string, proof SignedMessage) ([]string, error) {
	body := struct {
		Identity string        `json:"identity"`
		Proof    SignedMessage `json:"proof"`
	}{identity, proof}

	type mintsResponse struct {
		Mints []string `json:"mints"`
	}
	result, err := call[mintsResponse](ctx, c, c.readCfg, http.MethodPost, "/v1/mints", body)
	if err != nil {
		return nil, err
	}
	return result.Mints, nil
}

// NotifyBalanceSync nudges the pool's indexer after a suspected deposit.
// Deliberately a single unretried call outside the breaker: it is advisory,
// and its failure must never influence the primary flow or the breaker state.
func (c *Client) NotifyBalanceSync(ctx context.Context, identity string) error {
	body := struct {
		Identity string `json:"identity"`
	}{identity}
	return c.roundTrip(ctx, http.MethodPost, "/v1/balances/sync", body, nil)
}
