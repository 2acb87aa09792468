package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockledger/broker"
	"github.com/rustyeddy/stockledger/config"
	"github.com/rustyeddy/stockledger/engine"
	"github.com/rustyeddy/stockledger/internal/util"
	"github.com/rustyeddy/stockledger/metrics"
	"github.com/rustyeddy/stockledger/monitor"
	"github.com/rustyeddy/stockledger/oracle"
	"github.com/rustyeddy/stockledger/quote"
	"github.com/rustyeddy/stockledger/risk"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring and execution loop",
	Long: `Run starts one worker per configured symbol. Each cycle pulls a quote,
consults the decision oracle, and submits any buy or sell through the
execution controller. Stops cleanly on SIGINT/SIGTERM.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, store, led, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	logger := util.NewLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	gw, feed, err := buildBroker(cfg)
	if err != nil {
		return err
	}

	baseDelay, err := cfg.Execution.ParseBaseDelay()
	if err != nil {
		return err
	}
	eng := engine.New(gw, led, engine.Config{
		Limits: risk.Limits{
			FundLimit:        decimal.NewFromFloat(cfg.Risk.FundLimit),
			MaxPositionValue: decimal.NewFromFloat(cfg.Risk.MaxPositionValue),
		},
		FallbackToSimulated: cfg.Execution.FallbackToSimulated,
		Backoff:             engine.Backoff{Base: baseDelay, MaxAttempts: cfg.Execution.MaxRetries},
	}, logger)

	interval, err := cfg.Monitor.ParseInterval()
	if err != nil {
		return err
	}
	stocks := make([]monitor.Stock, 0, len(cfg.Monitor.Stocks))
	for _, s := range cfg.Monitor.Stocks {
		stocks = append(stocks, monitor.Stock{
			Symbol:          s.Symbol,
			DefaultQuantity: decimal.NewFromFloat(s.Quantity),
		})
	}

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
		logger.Info("metrics endpoint up", "addr", cfg.Metrics.Addr)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("monitor starting",
		"broker", gw.Name(), "symbols", len(stocks), "interval", interval)
	monitor.New(feed, oracle.Noop{}, eng, led, gw, stocks, interval, logger).Run(ctx)
	logger.Info("monitor stopped")
	return nil
}

// buildBroker wires the gateway and quote feed for the configured broker
// type. The paper broker pairs with a static feed; live quotes need the
// alpaca broker.
func buildBroker(cfg *config.Config) (broker.Gateway, quote.Feed, error) {
	switch cfg.Broker.Type {
	case "alpaca":
		gw := broker.NewAlpaca(cfg.Broker.APIKey, cfg.Broker.APISecret, cfg.Broker.BaseURL)
		return gw, quote.NewAlpacaFeed(cfg.Broker.APIKey, cfg.Broker.APISecret), nil
	case "paper":
		gw := broker.NewPaper(decimal.NewFromFloat(cfg.Broker.Cash), cfg.Broker.Currency)
		return gw, quote.NewStatic(), nil
	default:
		return nil, nil, fmt.Errorf("unknown broker type %q", cfg.Broker.Type)
	}
}
