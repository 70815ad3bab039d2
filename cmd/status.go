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
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <order-id>",
	Short: "Check the settlement status of a swap order",
	Long: `Check the settlement status of a swap order by the order ID the pool
returned when it accepted the swap.

Examples:
  wave-swap status ord_8f14e45f
  wave-swap status ord_8f14e45f --watch
  wave-swap status ord_8f14e45f --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	orderID := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	svc, err := newServices()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if watchStatus {
		watchOrderStatus(svc, orderID, jsonOutput)
	} else {
		checkOrderStatus(svc, orderID, jsonOutput)
	}
}

func checkOrderStatus(svc *services, orderID string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking order status..."
		s.Start()
	}

	status, err := svc.pool.GetOrderStatus(context.Background(), orderID)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(status, orderID)
	}
}

func watchOrderStatus(svc *services, orderID string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching order %s\n", color.CyanString(orderID))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	if checkAndDisplayStatus(svc, orderID) {
		return
	}

	// Then check periodically until the order settles
	for range ticker.C {
		if checkAndDisplayStatus(svc, orderID) {
			return
		}
	}
}

// checkAndDisplayStatus reports whether the order reached a terminal state.
func checkAndDisplayStatus(svc *services, orderID string) bool {
	status, err := svc.pool.GetOrderStatus(context.Background(), orderID)
	if err != nil {
		color.Red("Error: %v", err)
		return false
	}

	displayStatus(status, orderID)
	return status.Status == pool.OrderCompleted || status.Status == pool.OrderFailed
}

func displayStatus(status pool.OrderStatus, orderID string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        ORDER STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Order ID: %s\n", color.CyanString(orderID))
	fmt.Printf("  Status:   %s\n", getColoredStatus(status.Status))
	if status.Details != "" {
		fmt.Printf("  Details:  %s\n", status.Details)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	switch status {
	case pool.OrderCompleted:
		return color.GreenString(strings.ToUpper(status))
	case pool.OrderPending:
		return color.YellowString(strings.ToUpper(status))
	case pool.OrderFailed:
		return color.RedString(strings.ToUpper(status))
	default:
		return strings.ToUpper(status)
	}
}
