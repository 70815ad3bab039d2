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

	"wave-swap/pkg/tokens"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show your private pool balances and public wallet balance",
	Long: `Show the confidential balances your wallet holds inside the Wave
privacy pool, alongside the public SOL balance of the wallet.

Reading private balances requires a freshly signed proof from your wallet,
so a configured wallet key is required.

Examples:
  wave-swap balance
  wave-swap balance --json`,
	Run: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) {
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

	ctx := context.Background()
	owner := sgn.PublicKey()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching balances..."
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

	solBalance, solErr := svc.chain.NativeBalance(ctx, owner)
	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		output := map[string]interface{}{
			"owner":   owner,
			"private": map[string]string{},
		}
		private := output["private"].(map[string]string)
		for mint, amount := range privateBalances {
			private[mint] = amount.String()
		}
		if solErr == nil {
			output["public_sol"] = solBalance.String()
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                          BALANCES")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("\n  Wallet: %s\n", color.CyanString(owner))

	fmt.Println("\n  Private (in pool):")
	if len(privateBalances) == 0 {
		fmt.Println("    none")
	}
	for mint, amount := range privateBalances {
		meta, err := tokens.Resolve(mint)
		if err != nil {
			fmt.Printf("    %s  %s (base units)\n", color.HiBlackString(mint), amount.String())
			continue
		}
		display, err := meta.FromBaseUnits(amount.String())
		if err != nil {
			continue
		}
		fmt.Printf("    %-8s %s\n", color.YellowString(meta.Symbol), display)
	}

	fmt.Println("\n  Public:")
	if solErr != nil {
		color.Red("    SOL balance unavailable: %v", solErr)
	} else {
		fmt.Printf("    %-8s %s\n", color.YellowString("SOL"), solBalance.String())
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
