// Package engine is the order-execution controller: it authorizes an
// intended order against the risk limits, submits it through the broker
// gateway, and applies the fill to the ledger, falling back to a locally
// simulated fill when the broker is unreachable.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockledger/broker"
	"github.com/rustyeddy/stockledger/internal/id"
	"github.com/rustyeddy/stockledger/ledger"
	"github.com/rustyeddy/stockledger/metrics"
	"github.com/rustyeddy/stockledger/risk"
)

// ErrExecutionFailed is returned when broker submission failed after all
// retries and no simulated fallback applied.
var ErrExecutionFailed = errors.New("execution failed")

// State is the terminal state of one execution.
type State string

const (
	StateFilled    State = "filled"
	StateSimulated State = "simulated"
	StateRejected  State = "rejected"
)

// Order is one trading decision handed to the controller.
type Order struct {
	Symbol   string
	Side     ledger.Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// Result is the outcome of one Execute call.
type Result struct {
	State       State
	Transaction *ledger.Transaction
	Decision    risk.Decision
}

// Config carries the controller's knobs.
type Config struct {
	Limits risk.Limits
	// FallbackToSimulated synthesizes a local fill when the broker
	// submission fails with a transient error after all retries.
	FallbackToSimulated bool
	Backoff             Backoff
}

// Engine orchestrates risk checks, broker submission and ledger updates.
// Each Execute call runs independently to a terminal state; the ledger is
// the only cross-invocation state.
type Engine struct {
	gw  broker.Gateway
	led *ledger.Ledger
	cfg Config
	log *slog.Logger
}

// New wires an Engine. A zero-value Backoff in cfg is replaced with
// DefaultBackoff.
func New(gw broker.Gateway, led *ledger.Ledger, cfg Config, log *slog.Logger) *Engine {
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{gw: gw, led: led, cfg: cfg, log: log}
}

// Execute runs one order through validation, submission and ledger update.
//
// Authorization and submission are not atomic with each other: two
// concurrent calls can both pass the fund check before either lot is
// recorded. That window can transiently over-commit the fund limit but
// never corrupts the ledger, whose mutation is serialized under its own
// lock.
func (e *Engine) Execute(ctx context.Context, ord Order) (Result, error) {
	dec := e.authorize(ctx, ord)
	if !dec.Allowed {
		code := risk.CodeInvalidIntent
		if len(dec.Violations) > 0 {
			code = dec.Violations[0].Code
		}
		metrics.RiskRejections.WithLabelValues(code).Inc()
		metrics.OrdersExecuted.WithLabelValues(string(ord.Side), string(StateRejected)).Inc()
		e.log.Info("order rejected",
			"symbol", ord.Symbol, "side", ord.Side, "code", code)
		return Result{State: StateRejected, Decision: dec}, dec.Err()
	}
	if dec.Clamped {
		e.log.Info("order quantity clamped",
			"symbol", ord.Symbol, "side", ord.Side,
			"requested", ord.Quantity, "clamped", dec.Quantity)
	}

	orderID, simulated, err := e.submit(ctx, ord, dec.Quantity)
	if err != nil {
		metrics.OrdersExecuted.WithLabelValues(string(ord.Side), string(StateRejected)).Inc()
		return Result{State: StateRejected, Decision: dec}, err
	}

	tx, err := e.led.Record(ledger.Fill{
		Symbol:    ord.Symbol,
		Side:      ord.Side,
		Quantity:  dec.Quantity,
		Price:     ord.Price,
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
		Simulated: simulated,
	})
	if err != nil {
		return Result{State: StateRejected, Decision: dec}, fmt.Errorf("record fill: %w", err)
	}

	state := StateFilled
	if simulated {
		state = StateSimulated
	}
	metrics.OrdersExecuted.WithLabelValues(string(ord.Side), string(state)).Inc()
	e.log.Info("order executed",
		"symbol", ord.Symbol, "side", ord.Side,
		"quantity", tx.Quantity, "price", tx.Price,
		"order_id", orderID, "state", state)
	return Result{State: state, Transaction: &tx, Decision: dec}, nil
}

// authorize assembles the exposure snapshot and evaluates the risk limits.
// For sells the broker-reported available quantity is authoritative; if the
// broker positions call fails, the ledger's own open quantity stands in so a
// degraded broker does not block an exit.
func (e *Engine) authorize(ctx context.Context, ord Order) risk.Decision {
	exp := e.led.Exposure(ord.Symbol)

	in := risk.Exposure{
		UsedFunds:    exp.UsedFunds,
		PositionCost: exp.PositionCost,
	}

	if ord.Side == ledger.SideSell {
		in.Available = exp.OpenQuantity
		positions, err := e.gw.StockPositions(ctx)
		if err != nil {
			e.log.Warn("broker positions unavailable, using ledger quantity",
				"symbol", ord.Symbol, "error", err)
		} else {
			in.Available = decimal.Zero
			for _, p := range positions {
				if p.Symbol == ord.Symbol {
					in.Available = p.AvailableQuantity
					break
				}
			}
		}
	}

	return risk.Evaluate(e.cfg.Limits, risk.Intent{
		Symbol:   ord.Symbol,
		Side:     ord.Side,
		Quantity: ord.Quantity,
		Price:    ord.Price,
	}, in)
}

// submit sends the order through the gateway with retries. When retries are
// exhausted on a transient failure and the fallback is enabled, a simulated
// order ID is synthesized instead.
func (e *Engine) submit(ctx context.Context, ord Order, qty decimal.Decimal) (orderID string, simulated bool, err error) {
	var conf broker.Confirmation
	submitErr := e.cfg.Backoff.Retry(ctx, func() error {
		c, err := e.gw.SubmitOrder(ctx, broker.OrderRequest{
			Symbol:   ord.Symbol,
			Side:     ord.Side,
			Quantity: qty,
			Price:    ord.Price,
		})
		if err != nil {
			return err
		}
		conf = c
		return nil
	}, broker.IsTransient)

	if submitErr == nil {
		return conf.OrderID, false, nil
	}

	if broker.IsTransient(submitErr) && e.cfg.FallbackToSimulated {
		simID := "sim-" + id.New()
		metrics.SimulatedFallbacks.Inc()
		e.log.Warn("broker unreachable, falling back to simulated fill",
			"symbol", ord.Symbol, "side", ord.Side, "order_id", simID,
			"error", submitErr)
		return simID, true, nil
	}

	if broker.IsTransient(submitErr) {
		return "", false, fmt.Errorf("%w: %v", ErrExecutionFailed, submitErr)
	}
	return "", false, fmt.Errorf("submit order: %w", submitErr)
}
