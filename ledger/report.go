package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// recentLimit bounds the transaction detail carried in a Report.
const recentLimit = 20

// Position is the derived per-symbol aggregate over open lots.
type Position struct {
	Symbol       string
	OpenQuantity decimal.Decimal
	CostBasis    decimal.Decimal
	AverageCost  decimal.Decimal
}

// BuyPrice is the most recent buy fill for a symbol.
type BuyPrice struct {
	Price     decimal.Decimal
	Timestamp time.Time
}

// Report aggregates realized profit over the transaction history.
type Report struct {
	TotalProfit     decimal.Decimal
	SimulatedProfit decimal.Decimal
	PerSymbol       map[string]decimal.Decimal
	Transactions    int
	Recent          []Transaction
}

// Position returns the derived aggregate for symbol. A symbol with no open
// lots yields a zero position.
func (l *Ledger) Position(symbol string) Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := Position{Symbol: symbol}
	for _, lot := range l.lots.Open(symbol) {
		pos.OpenQuantity = pos.OpenQuantity.Add(lot.Quantity)
		pos.CostBasis = pos.CostBasis.Add(lot.Quantity.Mul(lot.Price))
	}
	if pos.OpenQuantity.IsPositive() {
		pos.AverageCost = pos.CostBasis.Div(pos.OpenQuantity)
	}
	return pos
}

// LastBuy returns the price and time of the most recent BUY for symbol, or
// nil if the ledger has never bought it.
func (l *Ledger) LastBuy(symbol string) *BuyPrice {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.history) - 1; i >= 0; i-- {
		tx := l.history[i]
		if tx.Symbol == symbol && tx.Side == SideBuy {
			return &BuyPrice{Price: tx.Price, Timestamp: tx.Timestamp}
		}
	}
	return nil
}

// ProfitReport recomputes realized profit over the full history. The
// history here is human-scale, so a full O(n) pass on demand beats carrying
// an incremental cache.
func (l *Ledger) ProfitReport() Report {
	l.mu.Lock()
	defer l.mu.Unlock()

	rep := Report{
		PerSymbol:    make(map[string]decimal.Decimal),
		Transactions: len(l.history),
	}

	for _, tx := range l.history {
		if tx.Profit == nil {
			continue
		}
		if tx.Simulated {
			rep.SimulatedProfit = rep.SimulatedProfit.Add(*tx.Profit)
			if !l.includeSimulated {
				continue
			}
		}
		rep.TotalProfit = rep.TotalProfit.Add(*tx.Profit)
		rep.PerSymbol[tx.Symbol] = rep.PerSymbol[tx.Symbol].Add(*tx.Profit)
	}

	start := len(l.history) - recentLimit
	if start < 0 {
		start = 0
	}
	for _, tx := range l.history[start:] {
		rep.Recent = append(rep.Recent, *tx)
	}
	return rep
}
