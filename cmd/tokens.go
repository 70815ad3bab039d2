package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wave-swap/pkg/tokens"
)

var filterSymbol string

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List tokens supported by the privacy pool",
	Long: `List the tokens the Wave privacy pool supports.

Examples:
  wave-swap list-tokens
  wave-swap list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	supported := tokens.List()
	if filterSymbol != "" {
		var filtered []tokens.Metadata
		for _, token := range supported {
			if strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(filterSymbol)) {
				filtered = append(filtered, token)
			}
		}
		supported = filtered
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(supported, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(supported)
}

func displayTokens(supported []tokens.Metadata) {
	if len(supported) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                          SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	for _, token := range supported {
		fmt.Printf("  %-8s %-12s %2d decimals  %s\n",
			color.YellowString(token.Symbol),
			token.Name,
			token.Decimals,
			color.HiBlackString(token.Mint))
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("\nTotal: %d tokens\n\n", len(supported))
}
