package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wave-swap/pkg/pool"
	"wave-swap/pkg/recovery"
)

var (
	recoverType      string
	recoverSubmitted string
)

var recoverCmd = &cobra.Command{
	Use:   "recover <signature>",
	Short: "Classify a stalled swap and get safe next steps",
	Long: `Inspect a stalled or interrupted swap by its transaction signature and
report what actually happened: whether the transaction landed, whether your
funds reached the pool, and what is safe to do next.

The check is read-only and can be run as many times as needed.

Examples:
  wave-swap recover 5xJ4...signature --type deposit
  wave-swap recover 5xJ4...signature --type withdrawal
  wave-swap recover 5xJ4...signature --type deposit --submitted-at 2026-08-28T11:30:00Z`,
	Args: cobra.ExactArgs(1),
	Run:  runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)

	recoverCmd.Flags().StringVar(&recoverType, "type", "deposit", "Transaction type: deposit or withdrawal")
	recoverCmd.Flags().StringVar(&recoverSubmitted, "submitted-at", "", "Submission time (RFC3339), used to distinguish dropped from still-propagating")
}

func runRecover(cmd *cobra.Command, args []string) {
	signature := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var declared recovery.DeclaredType
	switch strings.ToLower(recoverType) {
	case "deposit":
		declared = recovery.TypeDeposit
	case "withdrawal", "withdraw":
		declared = recovery.TypeWithdrawal
	default:
		printError(fmt.Errorf("unknown transaction type %q (expected deposit or withdrawal)", recoverType))
		os.Exit(1)
	}

	var submittedAt time.Time
	if recoverSubmitted != "" {
		var err error
		submittedAt, err = time.Parse(time.RFC3339, recoverSubmitted)
		if err != nil {
			printError(fmt.Errorf("invalid --submitted-at value: %w", err))
			os.Exit(1)
		}
	}

	svc, err := newServices()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Deposit classification inspects the pool's confidential balances and
	// needs a signed proof. Withdrawal classification is chain-only and works
	// without a configured wallet.
	var identity string
	var proof pool.SignedMessage
	if declared == recovery.TypeDeposit {
		sgn, err := svc.requireSigner()
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		identity = sgn.PublicKey()
		proof, err = svc.balanceProof()
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction state..."
		s.Start()
	}

	classifier := recovery.NewClassifier(svc.chain, svc.pool)
	action := classifier.Classify(context.Background(), recovery.Params{
		Identity:     identity,
		Signature:    signature,
		DeclaredType: declared,
		SubmittedAt:  submittedAt,
		Proof:        proof,
	})

	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		output := map[string]interface{}{
			"kind":       action.Kind,
			"message":    action.Message,
			"next_steps": action.NextSteps,
			"signature":  action.Signature,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayAction(action)
}

func displayAction(action recovery.Action) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                      RECOVERY CHECK")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Signature: %s\n", color.HiBlackString(action.Signature))
	fmt.Printf("  Outcome:   %s\n", coloredActionKind(action.Kind))
	fmt.Printf("\n  %s\n", action.Message)

	if len(action.NextSteps) > 0 {
		fmt.Println("\n  Next steps:")
		for _, step := range action.NextSteps {
			fmt.Printf("    - %s\n", step)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredActionKind(kind recovery.ActionKind) string {
	label := strings.ToUpper(strings.ReplaceAll(string(kind), "_", " "))
	switch kind {
	case recovery.ActionConfirmedPrivateFundsAvailable:
		return color.GreenString(label)
	case recovery.ActionPendingConfirmation:
		return color.YellowString(label)
	case recovery.ActionChainFailed, recovery.ActionNotFound:
		return color.RedString(label)
	case recovery.ActionUnableToClassify:
		return color.MagentaString(label)
	default:
		return label
	}
}
