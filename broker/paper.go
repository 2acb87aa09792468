package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockledger/internal/id"
	"github.com/rustyeddy/stockledger/ledger"
)

// Compile-time interface check.
var _ Gateway = (*Paper)(nil)

// Paper is an in-memory Gateway for offline runs and tests. Orders fill
// immediately at the submitted price; positions and cash are tracked so the
// whole harness behaves like the real thing without network access.
type Paper struct {
	mu        sync.Mutex
	cash      decimal.Decimal
	currency  string
	positions map[string]*Position
}

// NewPaper creates a paper gateway with the given starting cash.
func NewPaper(cash decimal.Decimal, currency string) *Paper {
	return &Paper{
		cash:      cash,
		currency:  currency,
		positions: make(map[string]*Position),
	}
}

// Name returns "paper".
func (p *Paper) Name() string { return "paper" }

// SubmitOrder fills the order at the submitted price and adjusts positions
// and cash.
func (p *Paper) SubmitOrder(_ context.Context, req OrderRequest) (Confirmation, error) {
	if !req.Quantity.IsPositive() || !req.Price.IsPositive() {
		return Confirmation{}, fmt.Errorf("paper: quantity and price must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	amount := req.Quantity.Mul(req.Price)

	switch req.Side {
	case ledger.SideBuy:
		if p.cash.LessThan(amount) {
			return Confirmation{}, fmt.Errorf("paper: insufficient cash %s for %s", p.cash, amount)
		}
		p.cash = p.cash.Sub(amount)
		pos, ok := p.positions[req.Symbol]
		if !ok {
			pos = &Position{Symbol: req.Symbol, Currency: p.currency}
			p.positions[req.Symbol] = pos
		}
		// Weighted-average cost over the combined quantity.
		total := pos.Quantity.Add(req.Quantity)
		pos.CostPrice = pos.CostPrice.Mul(pos.Quantity).Add(amount).Div(total)
		pos.Quantity = total
		pos.AvailableQuantity = total

	case ledger.SideSell:
		pos, ok := p.positions[req.Symbol]
		if !ok || !pos.AvailableQuantity.IsPositive() {
			return Confirmation{}, fmt.Errorf("paper: no position in %s", req.Symbol)
		}
		if req.Quantity.GreaterThan(pos.AvailableQuantity) {
			return Confirmation{}, fmt.Errorf("paper: sell %s exceeds available %s in %s",
				req.Quantity, pos.AvailableQuantity, req.Symbol)
		}
		pos.Quantity = pos.Quantity.Sub(req.Quantity)
		pos.AvailableQuantity = pos.Quantity
		p.cash = p.cash.Add(amount)
		if pos.Quantity.IsZero() {
			delete(p.positions, req.Symbol)
		}

	default:
		return Confirmation{}, fmt.Errorf("%w: side %q", ErrUnknownEnumValue, req.Side)
	}

	return Confirmation{OrderID: id.New()}, nil
}

// StockPositions returns copies of the simulated holdings.
func (p *Paper) StockPositions(_ context.Context) ([]Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, *pos)
	}
	return out, nil
}

// AccountBalance returns the simulated cash balance.
func (p *Paper) AccountBalance(_ context.Context) (Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Balance{AvailableCash: p.cash, Currency: p.currency}, nil
}
