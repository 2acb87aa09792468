// Package monitor drives the execution engine: one worker per monitored
// symbol pulls a quote, consults the decision oracle, and hands any buy or
// sell instruction to the engine.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockledger/broker"
	"github.com/rustyeddy/stockledger/engine"
	"github.com/rustyeddy/stockledger/ledger"
	"github.com/rustyeddy/stockledger/oracle"
	"github.com/rustyeddy/stockledger/quote"
)

// Stock is one monitored instrument and its default order size, used when
// the oracle does not name a quantity.
type Stock struct {
	Symbol          string
	DefaultQuantity decimal.Decimal
}

// Monitor runs the per-symbol decision loop.
type Monitor struct {
	feed     quote.Feed
	oracle   oracle.Oracle
	engine   *engine.Engine
	led      *ledger.Ledger
	gw       broker.Gateway
	stocks   []Stock
	interval time.Duration
	log      *slog.Logger
}

func New(feed quote.Feed, orc oracle.Oracle, eng *engine.Engine, led *ledger.Ledger,
	gw broker.Gateway, stocks []Stock, interval time.Duration, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		feed:     feed,
		oracle:   orc,
		engine:   eng,
		led:      led,
		gw:       gw,
		stocks:   stocks,
		interval: interval,
		log:      log,
	}
}

// Run starts one worker goroutine per symbol and blocks until ctx is
// cancelled. Each worker runs an immediate cycle and then one per interval.
func (m *Monitor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, s := range m.stocks {
		wg.Add(1)
		go func(s Stock) {
			defer wg.Done()
			m.worker(ctx, s)
		}(s)
	}
	wg.Wait()
}

func (m *Monitor) worker(ctx context.Context, s Stock) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Cycle(ctx, s)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cycle(ctx, s)
		}
	}
}

// Cycle runs one quote → decide → execute pass for a symbol.
func (m *Monitor) Cycle(ctx context.Context, s Stock) {
	q, err := m.feed.Quote(ctx, s.Symbol)
	if err != nil {
		m.log.Warn("quote unavailable", "symbol", s.Symbol, "error", err)
		return
	}

	dec, err := m.oracle.Decide(ctx, m.features(ctx, q))
	if err != nil {
		m.log.Warn("oracle failed", "symbol", s.Symbol, "error", err)
		return
	}
	m.log.Debug("oracle decision",
		"symbol", s.Symbol, "instruction", dec.Instruction,
		"quantity", dec.Quantity, "reason", dec.Reason)

	var side ledger.Side
	switch dec.Instruction {
	case oracle.Buy:
		side = ledger.SideBuy
	case oracle.Sell:
		side = ledger.SideSell
	default:
		return // hold
	}

	qty := dec.Quantity
	if !qty.IsPositive() {
		qty = s.DefaultQuantity
	}

	if _, err := m.engine.Execute(ctx, engine.Order{
		Symbol:   s.Symbol,
		Side:     side,
		Quantity: qty,
		Price:    q.LastPrice,
	}); err != nil {
		m.log.Warn("execution failed",
			"symbol", s.Symbol, "side", side, "error", err)
	}
}

// features assembles the oracle's view: quote, derived position, last buy,
// and broker cash when the gateway can supply it.
func (m *Monitor) features(ctx context.Context, q quote.Quote) oracle.Features {
	f := oracle.Features{
		Symbol:        q.Symbol,
		LastPrice:     q.LastPrice,
		PreviousClose: q.PreviousClose,
		Position:      m.led.Position(q.Symbol),
		LastBuy:       m.led.LastBuy(q.Symbol),
	}
	if bal, err := m.gw.AccountBalance(ctx); err == nil {
		f.AvailableCash = bal.AvailableCash
	}
	return f
}
