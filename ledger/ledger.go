package ledger

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockledger/metrics"
)

// Store is the durable backing for the transaction history. Append must make
// the write durable before returning; Update amends a previously appended
// transaction in place (identified by order ID).
type Store interface {
	Append(Transaction) error
	Update(Transaction) error
	LoadAll() ([]Transaction, error)
}

// Fill is one confirmed (or locally simulated) order execution to be
// recorded in the ledger.
type Fill struct {
	Symbol    string
	Side      Side
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	OrderID   string
	Timestamp time.Time
	Simulated bool
}

// Ledger owns the open lots and the transaction history behind a single
// ledger-wide mutex. It is the only component that mutates lot state; fund
// and profit reads cross symbols, so the lock is deliberately coarse.
//
// Store writes happen inside the critical section so the in-memory and
// durable views never diverge. A store failure is logged and counted but
// does not roll back the in-memory mutation (best-effort durability).
type Ledger struct {
	mu      sync.Mutex
	lots    *LotStore
	history []*Transaction
	byID    map[string]*Transaction
	store   Store
	log     *slog.Logger

	includeSimulated bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *slog.Logger) Option {
	return func(led *Ledger) { led.log = l }
}

// WithSimulatedInReport controls whether profit from simulated fills is
// folded into the report's realized totals. The simulated component is
// always reported separately either way.
func WithSimulatedInReport(include bool) Option {
	return func(led *Ledger) { led.includeSimulated = include }
}

// New loads the full transaction history from store and rebuilds the open
// lots from BUY transactions that are not yet closed.
func New(store Store, opts ...Option) (*Ledger, error) {
	led := &Ledger{
		lots:             NewLotStore(),
		byID:             make(map[string]*Transaction),
		store:            store,
		log:              slog.Default(),
		includeSimulated: true,
	}
	for _, opt := range opts {
		opt(led)
	}

	history, err := store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if err := led.rebuild(history); err != nil {
		return nil, err
	}
	return led, nil
}

// rebuild replays history in order, regenerating lot state from open BUY
// transactions. A BUY's quantity in history is its remaining quantity (it is
// amended as sells consume it), so replay never re-opens matched shares.
// Rebuilding twice from the same history yields identical state.
func (l *Ledger) rebuild(history []Transaction) error {
	l.lots = NewLotStore()
	l.history = make([]*Transaction, 0, len(history))
	l.byID = make(map[string]*Transaction, len(history))

	for i := range history {
		tx := history[i]
		l.history = append(l.history, &tx)
		l.byID[tx.OrderID] = &tx

		if tx.Side != SideBuy || tx.Closed {
			continue
		}
		if err := l.lots.Add(Lot{
			Symbol:   tx.Symbol,
			Quantity: tx.Quantity,
			Price:    tx.Price,
			OrderID:  tx.OrderID,
			OpenedAt: tx.Timestamp,
		}); err != nil {
			return fmt.Errorf("rebuild %s: %w", tx.OrderID, err)
		}
	}
	return nil
}

// Record applies one fill to the ledger: a BUY opens a lot, a SELL is
// matched FIFO against open lots and carries the realized profit. The
// resulting transaction is appended to history and persisted.
func (l *Ledger) Record(f Fill) (Transaction, error) {
	if !f.Quantity.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: quantity %s", ErrInvalidLot, f.Quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := Transaction{
		Symbol:    f.Symbol,
		Side:      f.Side,
		Quantity:  f.Quantity,
		Price:     f.Price,
		OrderID:   f.OrderID,
		Timestamp: f.Timestamp,
		Simulated: f.Simulated,
	}

	switch f.Side {
	case SideBuy:
		if err := l.lots.Add(Lot{
			Symbol:   f.Symbol,
			Quantity: f.Quantity,
			Price:    f.Price,
			OrderID:  f.OrderID,
			OpenedAt: f.Timestamp,
		}); err != nil {
			return Transaction{}, err
		}

	case SideSell:
		res := l.lots.Match(f.Symbol, f.Quantity, f.Price)
		profit, pct, cost := res.Profit, res.ProfitPercent, res.Cost
		tx.Profit = &profit
		tx.ProfitPercent = &pct
		tx.Cost = &cost
		tx.Matches = res.Matches
		tx.Unmatched = res.Unmatched
		l.amendMatchedBuys(res.Matches)

	default:
		return Transaction{}, fmt.Errorf("record: unknown side %q", f.Side)
	}

	l.history = append(l.history, &tx)
	l.byID[tx.OrderID] = &tx
	l.persist("append", func() error { return l.store.Append(tx) })

	return tx, nil
}

// amendMatchedBuys updates the originating BUY transactions in history to
// reflect consumption: fully matched buys are closed, partially matched buys
// keep their remaining quantity.
func (l *Ledger) amendMatchedBuys(matches []LotMatch) {
	for _, m := range matches {
		buy, ok := l.byID[m.LotOrderID]
		if !ok {
			continue
		}
		if m.Closed {
			buy.Closed = true
		} else {
			buy.Quantity = buy.Quantity.Sub(m.Quantity)
		}
		tx := *buy
		l.persist("update", func() error { return l.store.Update(tx) })
	}
}

// persist runs a store write, surfacing failures without rolling back.
func (l *Ledger) persist(op string, fn func() error) {
	if err := fn(); err != nil {
		metrics.PersistenceFailures.Inc()
		l.log.Warn("transaction persistence failed", "op", op, "error", err)
	}
}

// Exposure is the snapshot of committed capital RiskLimiter evaluates
// against: total cost basis across all symbols and the cost basis and open
// quantity of one symbol, read atomically under the ledger lock.
type Exposure struct {
	UsedFunds    decimal.Decimal
	PositionCost decimal.Decimal
	OpenQuantity decimal.Decimal
}

// Exposure returns the current exposure snapshot for symbol.
func (l *Ledger) Exposure(symbol string) Exposure {
	l.mu.Lock()
	defer l.mu.Unlock()

	var openQty decimal.Decimal
	for _, lot := range l.lots.Open(symbol) {
		openQty = openQty.Add(lot.Quantity)
	}
	return Exposure{
		UsedFunds:    l.lots.CostBasis(""),
		PositionCost: l.lots.CostBasis(symbol),
		OpenQuantity: openQty,
	}
}

// OpenLots returns copies of the open lots for symbol, oldest first.
func (l *Ledger) OpenLots(symbol string) []Lot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lots.Open(symbol)
}

// Symbols returns every symbol with at least one open lot.
func (l *Ledger) Symbols() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lots.Symbols()
}

// Transactions returns a copy of the full transaction history in order.
func (l *Ledger) Transactions() []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Transaction, 0, len(l.history))
	for _, tx := range l.history {
		out = append(out, *tx)
	}
	return out
}
