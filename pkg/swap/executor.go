package swap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wave-swap/pkg/chain"
	"wave-swap/pkg/pool"
	"wave-swap/pkg/signer"
)

// PoolAPI is the slice of the pool client the executor needs.
type PoolAPI interface {
	BuildDepositTransaction(ctx context.Context, mint, amount, depositor string) (pool.UnsignedTransaction, error)
	BuildSwapTransaction(ctx context.Context, sourceMint, destMint, amountIn, sender, receiver string) (pool.UnsignedTransaction, error)
	ExecuteSignedSwap(ctx context.Context, signedTx []byte, details pool.OrderDetails) (pool.OrderReceipt, error)
	BuildWithdrawTransaction(ctx context.Context, mint, amount, withdrawer string) (pool.UnsignedTransaction, error)
	NotifyBalanceSync(ctx context.Context, identity string) error
}

// ChainAPI is the slice of the chain client the executor needs.
type ChainAPI interface {
	SubmitTransaction(ctx context.Context, signedTx []byte) (string, error)
	AwaitConfirmation(ctx context.Context, signature string, interval time.Duration, maxAttempts int) (chain.Status, error)
	TokenBalance(ctx context.Context, owner, mint string) (decimal.Decimal, error)
}

// SettlementPoller watches an order until it settles.
type SettlementPoller interface {
	PollUntilTerminal(ctx context.Context, orderID string) (pool.OrderStatus, error)
}

// Result is the terminal report of one execution. When Success is false,
// FailedStep, Err and FundsAtRisk describe what happened; RecoveryRef holds
// the identifier (order id or transaction signature) the recovery flow needs.
type Result struct {
	Success      bool
	Status       Status
	Signatures   []string
	OrderID      string
	FinalBalance *decimal.Decimal // output token, display units, only after a withdrawal
	FailedStep   StepKind
	Err          error
	FundsAtRisk  bool
	RecoveryRef  string
	Guidance     string
}

// Executor drives a plan stage by stage, strictly in order. A step only
// starts after its predecessor completed; the first failure halts the run.
// No compensating action is ever attempted: once the pool has custody of a
// swap, only the recovery classifier can determine safe next actions.
type Executor struct {
	pool   PoolAPI
	chain  ChainAPI
	poller SettlementPoller
	log    zerolog.Logger

	confirmInterval time.Duration
	confirmAttempts int
}

// NewExecutor creates an executor over the given collaborators.
func NewExecutor(poolAPI PoolAPI, chainAPI ChainAPI, poller SettlementPoller) *Executor {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &Executor{
		pool:            poolAPI,
		chain:           chainAPI,
		poller:          poller,
		log:             zerolog.New(out).With().Timestamp().Str("component", "executor").Logger(),
		confirmInterval: 2 * time.Second,
		confirmAttempts: 30,
	}
}

// Execute runs the plan. onStepUpdate (optional) is called synchronously on
// every step transition so a host can render progress.
func (e *Executor) Execute(ctx context.Context, plan *Plan, sgn signer.Signer, onStepUpdate StepUpdateFunc) *Result {
	exec := &Execution{Plan: plan, Status: StatusQuoting}

	for _, step := range plan.Steps {
		var err error
		switch step.Kind {
		case StepQuote:
			// Completed during planning; surface it once for progress UIs.
			if onStepUpdate != nil {
				onStepUpdate(step)
			}
			continue
		case StepDeposit:
			exec.Status = StatusWrapping
			err = e.runDeposit(ctx, exec, step, sgn, onStepUpdate)
		case StepSwap:
			exec.Status = StatusSwapping
			err = e.runSwap(ctx, exec, step, sgn, onStepUpdate)
		case StepStatusPoll:
			exec.Status = StatusConfirming
			err = e.runStatusPoll(ctx, exec, step, onStepUpdate)
		case StepWithdraw:
			err = e.runWithdraw(ctx, exec, step, sgn, onStepUpdate)
		default:
			err = fmt.Errorf("unknown step kind %q", step.Kind)
		}

		if err != nil {
			step.fail(err, onStepUpdate)
			exec.Status = StatusFailed
			return e.failedResult(exec, step, err)
		}
	}

	exec.Status = StatusCompleted
	result := &Result{
		Success:    true,
		Status:     StatusCompleted,
		Signatures: exec.Signatures,
		OrderID:    exec.OrderID,
	}

	// Best-effort: a failed refresh never turns a completed swap into a
	// failure.
	if plan.RequiresWithdrawal {
		balance, err := e.chain.TokenBalance(ctx, plan.Request.Owner, plan.DestMeta.Mint)
		if err != nil {
			e.log.Warn().Err(err).Msg("final balance refresh failed")
		} else {
			result.FinalBalance = &balance
		}
	}
	return result
}

func (e *Executor) runDeposit(ctx context.Context, exec *Execution, step *Step, sgn signer.Signer, notify StepUpdateFunc) error {
	plan := exec.Plan
	step.start(notify)

	unsigned, err := e.pool.BuildDepositTransaction(ctx, plan.SourceMeta.Mint, plan.AmountBaseUnits, plan.Request.Owner)
	if err != nil {
		return fmt.Errorf("failed to build deposit transaction: %w", err)
	}
	signed, err := sgn.Sign(ctx, unsigned.Base64)
	if err != nil {
		return err
	}
	sig, err := e.chain.SubmitTransaction(ctx, signed)
	if err != nil {
		return fmt.Errorf("failed to submit deposit: %w", err)
	}
	step.Signature = sig
	exec.Signatures = append(exec.Signatures, sig)

	// The pool can only spend the deposit once the ledger confirms it.
	if _, err := e.chain.AwaitConfirmation(ctx, sig, e.confirmInterval, e.confirmAttempts); err != nil {
		return fmt.Errorf("deposit not confirmed: %w", err)
	}

	// Advisory nudge to the pool's indexer. Genuinely fire-and-forget: it
	// runs detached from the step and its failure is only logged.
	go func() {
		syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := e.pool.NotifyBalanceSync(syncCtx, plan.Request.Owner); err != nil {
			e.log.Warn().Err(err).Msg("balance sync notify failed")
		}
	}()

	step.complete(notify)
	return nil
}

func (e *Executor) runSwap(ctx context.Context, exec *Execution, step *Step, sgn signer.Signer, notify StepUpdateFunc) error {
	plan := exec.Plan
	step.start(notify)

	unsigned, err := e.pool.BuildSwapTransaction(ctx, plan.SourceMeta.Mint, plan.DestMeta.Mint,
		plan.AmountBaseUnits, plan.Request.Owner, plan.Request.Owner)
	if err != nil {
		return fmt.Errorf("failed to build swap transaction: %w", err)
	}
	signed, err := sgn.Sign(ctx, unsigned.Base64)
	if err != nil {
		return err
	}

	// The swap is executed against the exact amounts quoted at planning
	// time; a stale quote is re-planned, never silently refreshed here.
	receipt, err := e.pool.ExecuteSignedSwap(ctx, signed, pool.OrderDetails{
		SourceMint:   plan.SourceMeta.Mint,
		DestMint:     plan.DestMeta.Mint,
		AmountIn:     plan.AmountBaseUnits,
		MinAmountOut: plan.MinAmountOut,
		Sender:       plan.Request.Owner,
		Receiver:     plan.Request.Owner,
	})
	if err != nil {
		return fmt.Errorf("failed to execute swap: %w", err)
	}
	// From here the pool has custody; the order id is kept for recovery even
	// if everything after this line fails.
	exec.OrderID = receipt.OrderID

	step.complete(notify)
	return nil
}

func (e *Executor) runStatusPoll(ctx context.Context, exec *Execution, step *Step, notify StepUpdateFunc) error {
	step.start(notify)
	if _, err := e.poller.PollUntilTerminal(ctx, exec.OrderID); err != nil {
		return err
	}
	step.complete(notify)
	return nil
}

func (e *Executor) runWithdraw(ctx context.Context, exec *Execution, step *Step, sgn signer.Signer, notify StepUpdateFunc) error {
	plan := exec.Plan
	step.start(notify)

	unsigned, err := e.pool.BuildWithdrawTransaction(ctx, plan.DestMeta.Mint, plan.Quote.ExpectedOutAmount, plan.Request.Owner)
	if err != nil {
		return fmt.Errorf("failed to build withdraw transaction: %w", err)
	}
	signed, err := sgn.Sign(ctx, unsigned.Base64)
	if err != nil {
		return err
	}
	sig, err := e.chain.SubmitTransaction(ctx, signed)
	if err != nil {
		return fmt.Errorf("failed to submit withdrawal: %w", err)
	}
	step.Signature = sig
	exec.Signatures = append(exec.Signatures, sig)

	step.complete(notify)
	return nil
}

// failedResult assembles the terminal failure report: which step failed, how
// the error classifies, whether funds may still be in flight, and the
// identifier the recovery flow needs.
func (e *Executor) failedResult(exec *Execution, step *Step, err error) *Result {
	result := &Result{
		Status:     StatusFailed,
		Signatures: exec.Signatures,
		OrderID:    exec.OrderID,
		FailedStep: step.Kind,
		Err:        err,
	}

	switch step.Kind {
	case StepSwap, StepStatusPoll, StepWithdraw:
		result.FundsAtRisk = true
	}
	if exec.OrderID != "" {
		result.RecoveryRef = exec.OrderID
	} else if len(exec.Signatures) > 0 {
		result.RecoveryRef = exec.Signatures[len(exec.Signatures)-1]
	}

	var rejected *signer.UserRejectedError
	var timeout *pool.PollingTimeoutError
	var settlement *pool.SettlementFailedError
	switch {
	case errors.As(err, &rejected):
		// Nothing was submitted for the rejected step itself, but earlier
		// stages may already have put funds in pool custody: a completed
		// deposit (a signature exists) or an accepted swap (an order id
		// exists). Only a rejection before either is risk-free.
		if exec.OrderID == "" && len(exec.Signatures) == 0 {
			result.FundsAtRisk = false
			result.Guidance = "Signing was declined; nothing was submitted and no funds left your wallet."
		} else {
			result.Guidance = "Signing was declined, but earlier stages already moved funds into the pool. They are held there as a private balance; run the recovery flow or withdraw them when ready."
		}
	case errors.As(err, &timeout):
		result.Guidance = "Settlement status is unknown, not failed. Run the recovery flow with the order id above; do not resubmit the swap."
	case errors.As(err, &settlement):
		result.Guidance = "The pool reported the swap as failed. Run the recovery flow to locate your funds before retrying."
	default:
		if result.FundsAtRisk {
			result.Guidance = "Funds may still be in flight. Run the recovery flow with the identifier above before taking any other action."
		} else {
			result.Guidance = "No funds left your wallet. The swap can be retried once the upstream issue clears."
		}
	}

	e.log.Error().
		Str("step", string(step.Kind)).
		Bool("funds_at_risk", result.FundsAtRisk).
		Str("recovery_ref", result.RecoveryRef).
		Err(err).
		Msg("execution halted")
	return result
}
