package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wave-swap/pkg/swap"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past swaps recorded on this machine",
	Long: `List the swaps this CLI has run, newest first. Failed runs keep their
order ID and transaction signatures so they can be fed to the status and
recover commands.

Examples:
  wave-swap history
  wave-swap history --limit 5`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of records to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := swap.NewStore("")
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	records := store.List()
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Println("\nNo swaps recorded yet.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                                SWAP HISTORY")
	fmt.Println(strings.Repeat("=", 90))
	fmt.Println()

	for _, record := range records {
		fmt.Printf("  %s  %s %s -> %s  %s\n",
			record.CreatedAt.Format("2006-01-02 15:04"),
			record.Amount,
			color.YellowString(record.SourceToken),
			color.YellowString(record.DestToken),
			coloredRecordStatus(record.Status))
		if record.OrderID != "" {
			fmt.Printf("      order: %s\n", color.CyanString(record.OrderID))
		}
		if record.ErrorMessage != "" {
			fmt.Printf("      error: %s\n", color.HiBlackString(record.ErrorMessage))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d swaps\n\n", len(records))
}

func coloredRecordStatus(status swap.Status) string {
	label := strings.ToUpper(string(status))
	switch status {
	case swap.StatusCompleted:
		return color.GreenString(label)
	case swap.StatusFailed:
		return color.RedString(label)
	default:
		return color.YellowString(label)
	}
}
