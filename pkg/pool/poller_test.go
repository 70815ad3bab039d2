package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedStatusGetter struct {
	answers []OrderStatus
	errs    []error
	calls   int
}

func (s *scriptedStatusGetter) GetOrderStatus(ctx context.Context, orderID string) (OrderStatus, error) {
	idx := s.calls
	s.calls++
	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	answer := s.answers[len(s.answers)-1]
	if idx < len(s.answers) {
		answer = s.answers[idx]
	}
	return answer, err
}

func fastPollConfig(maxAttempts int) PollConfig {
	return PollConfig{Interval: time.Millisecond, MaxAttempts: maxAttempts}
}

func TestPollUntilTerminalCompleted(t *testing.T) {
	getter := &scriptedStatusGetter{answers: []OrderStatus{
		{Status: OrderPending},
		{Status: OrderPending},
		{Status: OrderCompleted},
	}}
	poller := NewPoller(getter, fastPollConfig(10))

	status, err := poller.PollUntilTerminal(context.Background(), "order-123")
	require.NoError(t, err)
	assert.Equal(t, OrderCompleted, status.Status)
	assert.Equal(t, 3, getter.calls)
}

func TestPollUntilTerminalSettlementFailed(t *testing.T) {
	getter := &scriptedStatusGetter{answers: []OrderStatus{
		{Status: OrderPending},
		{Status: OrderFailed, Details: "insufficient output"},
	}}
	poller := NewPoller(getter, fastPollConfig(10))

	_, err := poller.PollUntilTerminal(context.Background(), "order-123")
	var settlement *SettlementFailedError
	require.ErrorAs(t, err, &settlement)
	assert.Equal(t, "order-123", settlement.OrderID)
	assert.Equal(t, 2, getter.calls)
}

func TestPollUntilTerminalTimeout(t *testing.T) {
	getter := &scriptedStatusGetter{answers: []OrderStatus{{Status: OrderPending}}}
	poller := NewPoller(getter, fastPollConfig(5))

	start := time.Now()
	_, err := poller.PollUntilTerminal(context.Background(), "order-123")
	var timeout *PollingTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 5, timeout.Attempts)
	assert.Equal(t, 5, getter.calls)
	// Bounded wall-clock exposure.
	assert.Less(t, time.Since(start), time.Second)
}

func TestPollSurvivesTransientTransportFailures(t *testing.T) {
	getter := &scriptedStatusGetter{
		answers: []OrderStatus{{}, {Status: OrderCompleted}},
		errs:    []error{errors.New("pool unreachable")},
	}
	poller := NewPoller(getter, fastPollConfig(10))

	status, err := poller.PollUntilTerminal(context.Background(), "order-123")
	require.NoError(t, err)
	assert.Equal(t, OrderCompleted, status.Status)
}

func TestPollStopsOnCancellation(t *testing.T) {
	getter := &scriptedStatusGetter{answers: []OrderStatus{{Status: OrderPending}}}
	poller := NewPoller(getter, PollConfig{Interval: time.Minute, MaxAttempts: 40})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := poller.PollUntilTerminal(ctx, "order-123")
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop promptly after cancellation")
	}
	assert.Equal(t, 1, getter.calls)
}
