// Package swap plans and drives the multi-stage private swap lifecycle:
// public-chain deposit, privacy-pool swap, settlement polling and
// public-chain withdrawal.
package swap

import (
	"time"

	"wave-swap/pkg/pool"
	"wave-swap/pkg/tokens"
	"wave-swap/pkg/types"
)

// StepKind identifies a stage of the swap flow. The order is fixed:
// Deposit (when needed) -> Quote -> Swap -> StatusPoll -> Withdraw (unless
// opted out).
type StepKind string

const (
	StepDeposit    StepKind = "deposit"
	StepQuote      StepKind = "quote"
	StepSwap       StepKind = "swap"
	StepStatusPoll StepKind = "status_poll"
	StepWithdraw   StepKind = "withdraw"
)

// StepStatus is the lifecycle of a single step. Completed and Failed are
// terminal; a step never transitions out of them.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// Step is one stage of a flow plan.
type Step struct {
	Kind          StepKind
	Status        StepStatus
	Description   string
	Signature     string // signed-transaction reference, when the step submitted one
	ErrorMessage  string
	EstimatedTime time.Duration // advisory only, never used for timeouts
}

func (s *Step) terminal() bool {
	return s.Status == StepCompleted || s.Status == StepFailed
}

func (s *Step) start(notify StepUpdateFunc) {
	if s.terminal() {
		return
	}
	s.Status = StepInProgress
	if notify != nil {
		notify(s)
	}
}

func (s *Step) complete(notify StepUpdateFunc) {
	if s.terminal() {
		return
	}
	s.Status = StepCompleted
	if notify != nil {
		notify(s)
	}
}

func (s *Step) fail(err error, notify StepUpdateFunc) {
	if s.terminal() {
		return
	}
	s.Status = StepFailed
	s.ErrorMessage = err.Error()
	if notify != nil {
		notify(s)
	}
}

// StepUpdateFunc is invoked synchronously on every step status transition.
// It is a notification hook, not a queue; implementations must return
// quickly and must not block step execution.
type StepUpdateFunc func(step *Step)

// Plan is an ordered step sequence plus the quote it was planned against.
// The executed swap is built against these exact quoted amounts; refreshing
// the quote means re-running the planner and re-confirming with the user.
type Plan struct {
	Request    *types.SwapRequest
	SourceMeta tokens.Metadata
	DestMeta   tokens.Metadata

	AmountBaseUnits string // request amount in source base units
	Quote           pool.Quote
	MinAmountOut    string // base units, after slippage tolerance

	Steps              []*Step
	RequiresDeposit    bool
	RequiresWithdrawal bool
	EstimatedOutput    string // display units
	TotalEstimatedTime time.Duration
}

// Status is the overall state of a live execution, mirroring the step
// sequence.
type Status string

const (
	StatusQuoting    Status = "quoting"
	StatusWrapping   Status = "wrapping"
	StatusSwapping   Status = "swapping"
	StatusConfirming Status = "confirming"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Execution is the live run of a plan. One is created per request and
// discarded after its result is reported; persistence of swap records is the
// store's concern, not the orchestrator's.
type Execution struct {
	Plan       *Plan
	Status     Status
	Signatures []string
	OrderID    string // retained from the moment the pool accepts the swap
}
