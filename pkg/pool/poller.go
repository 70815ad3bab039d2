package pool

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// PollConfig bounds a settlement watch. The interval is deliberately
// constant, not exponential: settlement latency is roughly uniform, unlike
// the transient network failures the resilience wrapper backs off on.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollConfig bounds total wall-clock exposure to about two minutes.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:    3 * time.Second,
		MaxAttempts: 40,
	}
}

// OrderStatusGetter is the slice of the pool client the poller needs.
type OrderStatusGetter interface {
	GetOrderStatus(ctx context.Context, orderID string) (OrderStatus, error)
}

// Poller watches an in-flight order until it settles.
type Poller struct {
	client OrderStatusGetter
	cfg    PollConfig
	log    zerolog.Logger
}

// NewPoller creates a poller over the given status source.
func NewPoller(client OrderStatusGetter, cfg PollConfig) *Poller {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &Poller{
		client: client,
		cfg:    cfg,
		log:    zerolog.New(out).With().Timestamp().Str("component", "poller").Logger(),
	}
}

// PollUntilTerminal polls the order until it completes, fails, or the
// attempt budget runs out. Cancelling ctx stops local observation promptly;
// it never cancels the underlying pool operation, which stays in flight.
//
// A "failed" order surfaces as SettlementFailedError (a domain outcome, not
// a transport one). An exhausted budget surfaces as PollingTimeoutError,
// which callers must route to recovery instead of treating as failure.
func (p *Poller) PollUntilTerminal(ctx context.Context, orderID string) (OrderStatus, error) {
	var last OrderStatus
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		status, err := p.client.GetOrderStatus(ctx, orderID)
		if err != nil {
			// Transport exhaustion on a single poll is not terminal for the
			// watch; the next tick may succeed.
			p.log.Warn().Str("order_id", orderID).Int("attempt", attempt).Err(err).Msg("status poll failed")
		} else {
			last = status
			switch status.Status {
			case OrderCompleted:
				p.log.Info().Str("order_id", orderID).Int("attempt", attempt).Msg("order settled")
				return status, nil
			case OrderFailed:
				return status, &SettlementFailedError{OrderID: orderID, Details: status.Details}
			}
		}

		if attempt < p.cfg.MaxAttempts {
			select {
			case <-time.After(p.cfg.Interval):
			case <-ctx.Done():
				return last, ctx.Err()
			}
		}
	}
	return last, &PollingTimeoutError{OrderID: orderID, Attempts: p.cfg.MaxAttempts}
}
