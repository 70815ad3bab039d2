// Package recovery classifies stalled or ambiguous swaps after the fact. The
// classifier is read-only: it inspects chain confirmation state and pool
// balances, never submits anything, and is safe to call repeatedly.
package recovery

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wave-swap/pkg/chain"
	"wave-swap/pkg/pool"
)

// ActionKind is the classification outcome for a stalled transaction.
type ActionKind string

const (
	ActionNotFound                      ActionKind = "not_found"
	ActionChainFailed                   ActionKind = "chain_failed"
	ActionPendingConfirmation           ActionKind = "pending_confirmation"
	ActionConfirmedNoPrivateFunds       ActionKind = "confirmed_no_private_funds"
	ActionConfirmedPrivateFundsAvailable ActionKind = "confirmed_private_funds_available"
	ActionUnableToClassify              ActionKind = "unable_to_classify"
)

// Action is a classification outcome with user guidance. Signature always
// carries the raw input signature so it is never lost.
type Action struct {
	Kind      ActionKind
	Message   string
	NextSteps []string
	Signature string
}

// DeclaredType is the user's statement of what the stalled transaction was.
type DeclaredType string

const (
	TypeDeposit    DeclaredType = "deposit"
	TypeWithdrawal DeclaredType = "withdrawal"
)

// Params describes the transaction to classify. SubmittedAt may be zero when
// the submission time is unknown; an unknown age is treated as stale, so a
// not-found signature classifies as NotFound rather than PendingConfirmation.
type Params struct {
	Identity     string
	Signature    string
	DeclaredType DeclaredType
	SubmittedAt  time.Time
	Proof        pool.SignedMessage
}

// ChainProber is the strict confirmation probe: a non-nil error means the
// probe itself failed after retries, which must classify as UnableToClassify
// rather than be mistaken for NotFound.
type ChainProber interface {
	ConfirmationStatus(ctx context.Context, signature string) (chain.Status, error)
}

// BalanceSource reads the identity's confidential pool state.
type BalanceSource interface {
	GetKnownTokenMints(ctx context.Context, identity string, proof pool.SignedMessage) ([]string, error)
	GetPrivateBalance(ctx context.Context, identity string, mints []string, proof pool.SignedMessage) (map[string]pool.PrivateBalance, error)
}

// DefaultStalenessWindow is how long a signature may stay unobserved before
// "not found" means dropped rather than merely not yet indexed.
const DefaultStalenessWindow = 2 * time.Minute

// Classifier assigns a recovery action to a stalled transaction.
type Classifier struct {
	probe           ChainProber
	balances        BalanceSource
	stalenessWindow time.Duration
	now             func() time.Time
	log             zerolog.Logger
}

// NewClassifier creates a classifier over the given probes.
func NewClassifier(probe ChainProber, balances BalanceSource) *Classifier {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &Classifier{
		probe:           probe,
		balances:        balances,
		stalenessWindow: DefaultStalenessWindow,
		now:             time.Now,
		log:             zerolog.New(out).With().Timestamp().Str("component", "recovery").Logger(),
	}
}

// Classify inspects the chain and, for confirmed deposits, the pool, and
// returns the recovery action. The precedence order is fixed: probe failure,
// not-found, chain execution error, confirmation level, then pool state.
func (c *Classifier) Classify(ctx context.Context, p Params) Action {
	status, err := c.probe.ConfirmationStatus(ctx, p.Signature)
	if err != nil {
		c.log.Error().Err(err).Str("signature", p.Signature).Msg("probe failed during classification")
		return c.unableToClassify(p, err)
	}

	if !status.Found {
		if !p.SubmittedAt.IsZero() && c.now().Sub(p.SubmittedAt) < c.stalenessWindow {
			return c.pendingConfirmation(p)
		}
		return Action{
			Kind:      ActionNotFound,
			Message:   "The transaction was not found on-chain. It was likely dropped before inclusion.",
			NextSteps: []string{"Verify the signature is correct.", "If it is, the transaction did not land; it is safe to submit a fresh swap."},
			Signature: p.Signature,
		}
	}

	if status.ExecErr != "" {
		return Action{
			Kind:      ActionChainFailed,
			Message:   fmt.Sprintf("The transaction executed on-chain but failed: %s. No funds moved.", status.ExecErr),
			NextSteps: []string{"Check your wallet balance covers the amount plus fees.", "Submit a fresh swap when ready."},
			Signature: p.Signature,
		}
	}

	if status.Level != chain.LevelConfirmed && status.Level != chain.LevelFinalized {
		return c.pendingConfirmation(p)
	}

	if p.DeclaredType == TypeWithdrawal {
		// Withdrawal confirmed on-chain means the funds are already back in
		// the public wallet. Nothing is stuck.
		return Action{
			Kind:      ActionConfirmedNoPrivateFunds,
			Message:   "The withdrawal is confirmed on-chain. Your funds are in your public wallet.",
			NextSteps: []string{"Check your wallet balance. No further action is needed."},
			Signature: p.Signature,
		}
	}

	return c.classifyConfirmedDeposit(ctx, p)
}

// classifyConfirmedDeposit decides between a stuck deposit that produced a
// private balance and one that left no trace in the pool.
func (c *Classifier) classifyConfirmedDeposit(ctx context.Context, p Params) Action {
	mints, err := c.balances.GetKnownTokenMints(ctx, p.Identity, p.Proof)
	if err != nil {
		return c.unableToClassify(p, err)
	}
	if len(mints) > 0 {
		balances, err := c.balances.GetPrivateBalance(ctx, p.Identity, mints, p.Proof)
		if err != nil {
			return c.unableToClassify(p, err)
		}
		for mint, entry := range balances {
			amount, parseErr := decimal.NewFromString(entry.Balance)
			if parseErr != nil {
				continue
			}
			if amount.IsPositive() {
				c.log.Info().Str("mint", mint).Str("balance", entry.Balance).Msg("private funds located")
				return Action{
					Kind:    ActionConfirmedPrivateFundsAvailable,
					Message: "The deposit is confirmed and your private balance is available in the pool. The swap itself may not have executed.",
					NextSteps: []string{
						"Retry the swap using your existing private balance (no new deposit needed).",
						"Or withdraw the private balance back to your public wallet as-is.",
					},
					Signature: p.Signature,
				}
			}
		}
	}

	// Two indistinguishable possibilities from these signals alone; the
	// message deliberately asserts neither.
	return Action{
		Kind: ActionConfirmedNoPrivateFunds,
		Message: "The deposit is confirmed on-chain but no matching private balance was found. " +
			"Either the swap already completed and the funds were returned to your public wallet, " +
			"or the pool has not yet indexed the deposit.",
		NextSteps: []string{
			"Check your public wallet for the swap output.",
			"If nothing arrived, wait a few minutes and run this check again.",
			"If the balance still does not appear, contact support with the signature below.",
		},
		Signature: p.Signature,
	}
}

func (c *Classifier) pendingConfirmation(p Params) Action {
	return Action{
		Kind:      ActionPendingConfirmation,
		Message:   "The transaction has not reached confirmed commitment yet.",
		NextSteps: []string{"Wait a minute and run this check again.", "Do not resubmit in the meantime."},
		Signature: p.Signature,
	}
}

func (c *Classifier) unableToClassify(p Params, err error) Action {
	return Action{
		Kind:    ActionUnableToClassify,
		Message: fmt.Sprintf("Classification could not complete: %v. This does not mean the transaction failed.", err),
		NextSteps: []string{
			"Preserve the signature below.",
			"Retry this check once connectivity recovers, or contact support with the signature.",
		},
		Signature: p.Signature,
	}
}
