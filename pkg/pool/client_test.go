package pool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wave-swap/pkg/resilience"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "test-key", resilience.NewCaller())
	require.NoError(t, err)
	client.readCfg.BaseDelay = time.Millisecond
	client.txnCfg.BaseDelay = time.Millisecond
	return client, server
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("http://localhost", "", resilience.NewCaller())
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGetQuote(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/quote", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1500000", body["amountIn"])

		json.NewEncoder(w).Encode(Quote{ExpectedOutAmount: "42000000", PriceImpactBps: 12})
	}))

	quote, err := client.GetQuote(context.Background(), "usdc-mint", "wave-mint", "1500000")
	require.NoError(t, err)
	assert.Equal(t, "42000000", quote.ExpectedOutAmount)
}

func TestGetQuoteUnavailable(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "insufficient liquidity"})
	}))

	_, err := client.GetQuote(context.Background(), "usdc-mint", "wave-mint", "1500000")
	var unavailable *QuoteUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Reason, "insufficient liquidity")
	// A domain refusal must not be retried.
	assert.Equal(t, 1, calls)
}

func TestExecuteSignedSwapReturnsOrderID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/swap/execute", r.URL.Path)
		json.NewEncoder(w).Encode(OrderReceipt{OrderID: "order-123", Timestamp: time.Now()})
	}))

	receipt, err := client.ExecuteSignedSwap(context.Background(), []byte{1, 2, 3}, OrderDetails{
		SourceMint: "usdc-mint",
		DestMint:   "wave-mint",
		AmountIn:   "1500000",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-123", receipt.OrderID)
}

func TestTransportFailureRetriedThenSurfaced(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.GetOrderStatus(context.Background(), "order-123")
	var unavailable *resilience.UpstreamUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, int32(client.readCfg.MaxAttempts), atomic.LoadInt32(&calls))
}

// After failureThreshold exhausted sequences against the pool, the next call
// must fail fast with CircuitOpenError and make no outbound request.
func TestBreakerOpensWithoutOutboundRequest(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	threshold := client.readCfg.FailureThreshold
	for i := 0; i < threshold; i++ {
		_, err := client.GetQuote(context.Background(), "usdc-mint", "wave-mint", "1500000")
		require.Error(t, err)
	}
	seen := atomic.LoadInt32(&calls)
	require.Equal(t, int32(threshold*client.readCfg.MaxAttempts), seen)

	_, err := client.GetQuote(context.Background(), "usdc-mint", "wave-mint", "1500000")
	var open *resilience.CircuitOpenError
	require.ErrorAs(t, err, &open)
	assert.Equal(t, EndpointKey, open.Endpoint)
	assert.Equal(t, seen, atomic.LoadInt32(&calls), "no outbound request while circuit is open")
}

func TestGetPrivateBalanceForwardsProof(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Identity string        `json:"identity"`
			Mints    []string      `json:"mints"`
			Proof    SignedMessage `json:"proof"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "owner-pubkey", body.Identity)
		assert.Equal(t, "signed-payload", body.Proof.Signature)

		json.NewEncoder(w).Encode(map[string]PrivateBalance{
			"wave-mint": {Balance: "42000000", Visible: true},
		})
	}))

	balances, err := client.GetPrivateBalance(context.Background(), "owner-pubkey",
		[]string{"wave-mint"}, SignedMessage{Message: "payload", Signature: "signed-payload"})
	require.NoError(t, err)
	assert.Equal(t, "42000000", balances["wave-mint"].Balance)
	assert.True(t, balances["wave-mint"].Visible)
}

func TestGetKnownTokenMints(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/mints", r.URL.Path)
		json.NewEncoder(w).Encode(map[string][]string{"mints": {"wave-mint", "usdc-mint"}})
	}))

	mints, err := client.GetKnownTokenMints(context.Background(), "owner-pubkey", SignedMessage{})
	require.NoError(t, err)
	assert.Equal(t, []string{"wave-mint", "usdc-mint"}, mints)
}

func TestNotifyBalanceSyncSingleShot(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.NotifyBalanceSync(context.Background(), "owner-pubkey")
	require.Error(t, err)
	// Advisory call: exactly one attempt, no breaker accounting.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, client.caller.Status(EndpointKey).ConsecutiveFailures)
}
