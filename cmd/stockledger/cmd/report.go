package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var reportRecent bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the realized profit report",
	Long: `Report replays the journal and prints realized profit in total and per
symbol. Simulated fills are folded in or kept separate depending on
report.include_simulated.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportRecent, "recent", false, "include recent transactions")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	_, store, led, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	rep := led.ProfitReport()

	fmt.Printf("Transactions:     %d\n", rep.Transactions)
	fmt.Printf("Total profit:     %s\n", rep.TotalProfit.StringFixed(2))
	fmt.Printf("Simulated profit: %s\n", rep.SimulatedProfit.StringFixed(2))

	if len(rep.PerSymbol) > 0 {
		symbols := make([]string, 0, len(rep.PerSymbol))
		for sym := range rep.PerSymbol {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)

		fmt.Println()
		fmt.Printf("%-8s %12s\n", "SYMBOL", "PROFIT")
		for _, sym := range symbols {
			fmt.Printf("%-8s %12s\n", sym, rep.PerSymbol[sym].StringFixed(2))
		}
	}

	if reportRecent && len(rep.Recent) > 0 {
		fmt.Println()
		fmt.Printf("%-20s %-8s %-4s %10s %10s %10s\n",
			"TIME", "SYMBOL", "SIDE", "QTY", "PRICE", "PROFIT")
		for _, tx := range rep.Recent {
			profit := "-"
			if tx.Profit != nil {
				profit = tx.Profit.StringFixed(2)
			}
			sim := ""
			if tx.Simulated {
				sim = " (sim)"
			}
			fmt.Printf("%-20s %-8s %-4s %10s %10s %10s%s\n",
				tx.Timestamp.Format("2006-01-02 15:04:05"),
				tx.Symbol, tx.Side,
				tx.Quantity.String(), tx.Price.StringFixed(2), profit, sim)
		}
	}
	return nil
}
