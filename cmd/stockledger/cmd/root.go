package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockledger/config"
	"github.com/rustyeddy/stockledger/journal"
	"github.com/rustyeddy/stockledger/ledger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "stockledger",
	Short: "A position and realized-profit ledger with order execution",
	Long: `Stockledger tracks open buy lots per symbol, matches sells against them
FIFO to compute realized profit, enforces fund and position limits before
submitting orders, and falls back to simulated fills when the broker is
unreachable.

It provides tools for:
  - Running the per-symbol monitoring and execution loop
  - Reporting realized profit over the transaction history
  - Inspecting open lots and per-symbol positions`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to config file")
}

// closableStore is what the journal backends provide beyond ledger.Store.
type closableStore interface {
	ledger.Store
	Close() error
}

// openStore opens the configured journal backend.
func openStore(cfg *config.Config) (closableStore, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "json":
		return journal.NewJSON(cfg.Journal.JSONPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}

// openLedger loads config, opens the store, and rebuilds the ledger.
func openLedger() (*config.Config, closableStore, *ledger.Ledger, error) {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open journal: %w", err)
	}
	led, err := ledger.New(store,
		ledger.WithSimulatedInReport(cfg.Report.IncludeSimulated))
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	return cfg, store, led, nil
}
