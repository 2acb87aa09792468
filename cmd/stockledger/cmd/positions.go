package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var positionsLots bool

var positionsCmd = &cobra.Command{
	Use:   "positions [symbol...]",
	Short: "Show open positions derived from unmatched buy lots",
	RunE:  runPositions,
}

func init() {
	positionsCmd.Flags().BoolVar(&positionsLots, "lots", false, "list individual open lots")
	rootCmd.AddCommand(positionsCmd)
}

func runPositions(cmd *cobra.Command, args []string) error {
	_, store, led, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	symbols := args
	if len(symbols) == 0 {
		symbols = led.Symbols()
	}
	if len(symbols) == 0 {
		fmt.Println("no open positions")
		return nil
	}

	fmt.Printf("%-8s %12s %14s %12s\n", "SYMBOL", "QTY", "COST BASIS", "AVG COST")
	for _, sym := range symbols {
		pos := led.Position(sym)
		fmt.Printf("%-8s %12s %14s %12s\n",
			pos.Symbol,
			pos.OpenQuantity.String(),
			pos.CostBasis.StringFixed(2),
			pos.AverageCost.StringFixed(2))

		if !positionsLots {
			continue
		}
		for _, lot := range led.OpenLots(sym) {
			fmt.Printf("  %-20s %12s %14s  %s\n",
				lot.OrderID,
				lot.Quantity.String(),
				lot.Price.StringFixed(2),
				lot.OpenedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
