package swap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wave-swap/pkg/pool"
	"wave-swap/pkg/tokens"
	"wave-swap/pkg/types"
)

// Advisory upper-bound durations per step, summed into the plan's total
// estimate. Strictly user-facing; nothing times out on these.
const (
	estDeposit  = 45 * time.Second
	estSwap     = 30 * time.Second
	estPoll     = 2 * time.Minute
	estWithdraw = 45 * time.Second
)

// QuoteSource is the slice of the pool client the planner needs.
type QuoteSource interface {
	GetQuote(ctx context.Context, sourceMint, destMint, amountIn string) (pool.Quote, error)
}

// Planner turns a swap request into an ordered step plan.
type Planner struct {
	quotes QuoteSource
	log    zerolog.Logger
}

// NewPlanner creates a planner over the given quote source.
func NewPlanner(quotes QuoteSource) *Planner {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &Planner{
		quotes: quotes,
		log:    zerolog.New(out).With().Timestamp().Str("component", "planner").Logger(),
	}
}

// Plan validates the request, quotes it once, and decides which stages are
// necessary. privateBalances maps mint address to the user's confidential
// balance in base units; a shortfall on the source token adds a Deposit
// step. The Quote step is created already completed: planning paid the
// network cost of the quote, and execution reuses its amounts verbatim.
func (p *Planner) Plan(ctx context.Context, req *types.SwapRequest, privateBalances map[string]decimal.Decimal, withdrawalRequested bool) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sourceMeta, err := tokens.Resolve(req.SourceToken)
	if err != nil {
		return nil, err
	}
	destMeta, err := tokens.Resolve(req.DestToken)
	if err != nil {
		return nil, err
	}

	amountBase, err := sourceMeta.ToBaseUnits(req.Amount)
	if err != nil {
		return nil, err
	}
	required, err := decimal.NewFromString(amountBase)
	if err != nil {
		return nil, fmt.Errorf("invalid base amount: %w", err)
	}

	available := privateBalances[sourceMeta.Mint]
	requiresDeposit := available.LessThan(required)
	p.log.Debug().
		Str("mint", sourceMeta.Mint).
		Str("required", required.String()).
		Str("available", available.String()).
		Bool("requires_deposit", requiresDeposit).
		Msg("checked private balance")

	quote, err := p.quotes.GetQuote(ctx, sourceMeta.Mint, destMeta.Mint, amountBase)
	if err != nil {
		return nil, err
	}
	minOut, err := minAmountOut(quote.ExpectedOutAmount, req.Slippage())
	if err != nil {
		return nil, err
	}
	estimatedOutput, err := destMeta.FromBaseUnits(quote.ExpectedOutAmount)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Request:            req,
		SourceMeta:         sourceMeta,
		DestMeta:           destMeta,
		AmountBaseUnits:    amountBase,
		Quote:              quote,
		MinAmountOut:       minOut,
		RequiresDeposit:    requiresDeposit,
		RequiresWithdrawal: withdrawalRequested,
		EstimatedOutput:    estimatedOutput,
	}

	if requiresDeposit {
		plan.Steps = append(plan.Steps, &Step{
			Kind:          StepDeposit,
			Status:        StepPending,
			Description:   fmt.Sprintf("Deposit %s %s into the privacy pool", req.Amount, sourceMeta.Symbol),
			EstimatedTime: estDeposit,
		})
	}
	plan.Steps = append(plan.Steps, &Step{
		Kind:        StepQuote,
		Status:      StepCompleted, // planning already obtained the quote
		Description: fmt.Sprintf("Quoted %s %s -> %s %s", req.Amount, sourceMeta.Symbol, estimatedOutput, destMeta.Symbol),
	})
	plan.Steps = append(plan.Steps, &Step{
		Kind:          StepSwap,
		Status:        StepPending,
		Description:   fmt.Sprintf("Swap %s %s for %s privately", req.Amount, sourceMeta.Symbol, destMeta.Symbol),
		EstimatedTime: estSwap,
	})
	plan.Steps = append(plan.Steps, &Step{
		Kind:          StepStatusPoll,
		Status:        StepPending,
		Description:   "Wait for pool settlement",
		EstimatedTime: estPoll,
	})
	if withdrawalRequested {
		plan.Steps = append(plan.Steps, &Step{
			Kind:          StepWithdraw,
			Status:        StepPending,
			Description:   fmt.Sprintf("Withdraw %s to your public wallet", destMeta.Symbol),
			EstimatedTime: estWithdraw,
		})
	}

	for _, step := range plan.Steps {
		plan.TotalEstimatedTime += step.EstimatedTime
	}
	return plan, nil
}

// minAmountOut applies the slippage tolerance in basis points:
// minOut = expected * (10000 - bps) / 10000, floored.
func minAmountOut(expectedOut string, slippageBps uint32) (string, error) {
	expected, err := decimal.NewFromString(expectedOut)
	if err != nil {
		return "", fmt.Errorf("invalid expected output %q: %w", expectedOut, err)
	}
	factor := decimal.NewFromInt(10000 - int64(slippageBps)).Div(decimal.NewFromInt(10000))
	return expected.Mul(factor).Floor().String(), nil
}
