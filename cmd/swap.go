package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"wave-swap/pkg/parser"
	"wave-swap/pkg/pool"
	"wave-swap/pkg/swap"
)

var (
	noWithdraw  bool
	slippageBps uint32
	noConfirm   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap tokens privately through the Wave pool",
	Long: `Swap Solana tokens privately through the Wave privacy pool.

The swap is planned first: the CLI quotes the pair, checks your private
balance and shows you the exact stages (deposit, swap, settlement,
withdrawal) before anything is signed. Each stage runs only after the
previous one completed.

By default the output token is withdrawn back to your public wallet at the
end. Use --no-withdraw to leave it in the pool as a private balance.

Examples:
  wave-swap swap 1.5 USDC to WAVE
  wave-swap swap 100 WAVE to USDC --no-withdraw
  wave-swap swap 1.5 USDC to WAVE --slippage-bps 100 --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVar(&noWithdraw, "no-withdraw", false, "Leave the output as a private balance in the pool")
	swapCmd.Flags().Uint32Var(&slippageBps, "slippage-bps", 0, "Slippage tolerance in basis points (default 50)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	commandStr := strings.Join(args, " ")
	swapReq, err := parser.ParseSwapCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	swapReq.SlippageBps = slippageBps

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	svc, err := newServices()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	sgn, err := svc.requireSigner()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	swapReq.Owner = sgn.PublicKey()

	ctx := context.Background()

	// Plan with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Planning swap..."
		s.Start()
	}

	privateBalances, err := fetchPrivateBalances(ctx, svc)
	if err != nil {
		if !jsonOutput {
			s.Stop()
		}
		printError(err)
		os.Exit(1)
	}

	planner := swap.NewPlanner(svc.pool)
	plan, err := planner.Plan(ctx, swapReq, privateBalances, !noWithdraw)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		if verbose {
			fmt.Printf("\nDebug: Error planning swap: %v\n", err)
		}
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"source_amount":     swapReq.Amount,
			"source_token":      swapReq.SourceToken,
			"estimated_output":  plan.EstimatedOutput,
			"dest_token":        swapReq.DestToken,
			"min_amount_out":    plan.MinAmountOut,
			"requires_deposit":  plan.RequiresDeposit,
			"withdrawal":        plan.RequiresWithdrawal,
			"time_estimate_sec": plan.TotalEstimatedTime.Seconds(),
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayPlan(plan)
	}

	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	record := &swap.Record{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now(),
		SourceToken: swapReq.SourceToken,
		DestToken:   swapReq.DestToken,
		Amount:      swapReq.Amount,
		Owner:       swapReq.Owner,
		Status:      swap.StatusQuoting,
	}
	store, err := swap.NewStore("")
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := store.Create(record); err != nil {
		printError(err)
		os.Exit(1)
	}

	poller := pool.NewPoller(svc.pool, pool.DefaultPollConfig())
	executor := swap.NewExecutor(svc.pool, svc.chain, poller)

	var progress *spinner.Spinner
	onStep := func(step *swap.Step) {
		if jsonOutput {
			return
		}
		switch step.Status {
		case swap.StepInProgress:
			progress = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			progress.Suffix = " " + step.Description
			progress.Start()
		case swap.StepCompleted:
			if progress != nil {
				progress.Stop()
				progress = nil
			}
			color.Green("  ✓ %s", step.Description)
		case swap.StepFailed:
			if progress != nil {
				progress.Stop()
				progress = nil
			}
			color.Red("  ✗ %s", step.Description)
		}
	}

	if !jsonOutput {
		fmt.Println()
	}
	result := executor.Execute(ctx, plan, sgn, onStep)

	record.Status = result.Status
	record.Signatures = result.Signatures
	record.OrderID = result.OrderID
	if result.Err != nil {
		record.ErrorMessage = result.Err.Error()
	}
	if err := store.Update(record); err != nil && verbose {
		fmt.Printf("\nDebug: failed to record swap: %v\n", err)
	}

	if jsonOutput {
		displayResultJSON(result, record.ID)
	} else {
		displayResult(result, plan, record.ID)
	}
	if !result.Success {
		os.Exit(1)
	}
}

// fetchPrivateBalances reads the caller's confidential pool balances, keyed
// by mint, for deposit-necessity planning. A wallet with no pool history
// yields an empty map.
func fetchPrivateBalances(ctx context.Context, svc *services) (map[string]decimal.Decimal, error) {
	proof, err := svc.balanceProof()
	if err != nil {
		return nil, err
	}
	identity := svc.signer.PublicKey()

	mints, err := svc.pool.GetKnownTokenMints(ctx, identity, proof)
	if err != nil {
		return nil, err
	}
	balances := make(map[string]decimal.Decimal)
	if len(mints) == 0 {
		return balances, nil
	}

	entries, err := svc.pool.GetPrivateBalance(ctx, identity, mints, proof)
	if err != nil {
		return nil, err
	}
	for mint, entry := range entries {
		amount, parseErr := decimal.NewFromString(entry.Balance)
		if parseErr != nil {
			continue
		}
		balances[mint] = amount
	}
	return balances, nil
}

func displayPlan(plan *swap.Plan) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      SWAP PLAN")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:           %s %s\n", plan.Request.Amount, color.YellowString(plan.SourceMeta.Symbol))
	fmt.Printf("  To:             ~%s %s\n", plan.EstimatedOutput, color.YellowString(plan.DestMeta.Symbol))
	fmt.Printf("  Minimum Out:    %s (base units, %d bps slippage)\n", plan.MinAmountOut, plan.Request.Slippage())
	fmt.Printf("  Estimated Time: %.0f seconds\n", plan.TotalEstimatedTime.Seconds())

	fmt.Println("\n  Stages:")
	for i, step := range plan.Steps {
		marker := fmt.Sprintf("%d.", i+1)
		if step.Status == swap.StepCompleted {
			fmt.Printf("    %s %s %s\n", marker, step.Description, color.GreenString("(done)"))
		} else {
			fmt.Printf("    %s %s\n", marker, step.Description)
		}
	}

	if !plan.RequiresDeposit {
		fmt.Printf("\n  Your existing private balance covers this swap; no deposit needed.\n")
	}
	if !plan.RequiresWithdrawal {
		fmt.Printf("\n  The output stays in the pool as a private balance (--no-withdraw).\n")
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func displayResult(result *swap.Result, plan *swap.Plan, recordID string) {
	if result.Success {
		printSuccess(color.GreenString("Swap completed."))
		if result.FinalBalance != nil {
			fmt.Printf("  Wallet balance: %s %s\n", result.FinalBalance.String(), plan.DestMeta.Symbol)
		}
		if result.OrderID != "" {
			fmt.Printf("  Order ID:       %s\n", color.CyanString(result.OrderID))
		}
		for _, sig := range result.Signatures {
			fmt.Printf("  Signature:      %s\n", color.HiBlackString(sig))
		}
		fmt.Println()
		return
	}

	printError(result.Err)
	fmt.Printf("  Failed Stage: %s\n", result.FailedStep)
	if result.FundsAtRisk {
		color.Yellow("  Funds may be held in the pool. Do not retry blindly.")
	}
	if result.RecoveryRef != "" {
		fmt.Printf("  Recovery Ref: %s\n", color.CyanString(result.RecoveryRef))
	}
	if result.Guidance != "" {
		fmt.Printf("\n  %s\n", result.Guidance)
	}
	fmt.Printf("\n  This run was recorded as %s. To check what happened later:\n", recordID)
	if result.OrderID != "" {
		color.Cyan("    wave-swap status %s\n", result.OrderID)
	} else if result.RecoveryRef != "" {
		color.Cyan("    wave-swap recover %s --type deposit\n", result.RecoveryRef)
	}
	fmt.Println()
}

func displayResultJSON(result *swap.Result, recordID string) {
	output := map[string]interface{}{
		"record_id":  recordID,
		"success":    result.Success,
		"status":     result.Status,
		"signatures": result.Signatures,
	}
	if result.OrderID != "" {
		output["order_id"] = result.OrderID
	}
	if result.FinalBalance != nil {
		output["final_balance"] = result.FinalBalance.String()
	}
	if !result.Success {
		output["failed_step"] = result.FailedStep
		output["error"] = result.Err.Error()
		output["funds_at_risk"] = result.FundsAtRisk
		output["recovery_ref"] = result.RecoveryRef
		output["guidance"] = result.Guidance
	}
	jsonData, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(jsonData))
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
