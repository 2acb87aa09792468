package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidLot is returned when a lot is created with a non-positive
// quantity.
var ErrInvalidLot = errors.New("invalid lot")

// Lot is an open buy tranche awaiting being matched against future sells.
// Quantity is the remaining (still unmatched) share count; Price is the
// original fill price and never changes.
type Lot struct {
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	OrderID  string
	OpenedAt time.Time
}

// LotStore holds the open buy lots per symbol, ordered oldest-first.
//
// It is not safe for concurrent use; the owning Ledger serializes access
// under its single mutex.
type LotStore struct {
	lots map[string][]*Lot
}

func NewLotStore() *LotStore {
	return &LotStore{lots: make(map[string][]*Lot)}
}

// Add appends a new open lot. Quantity must be positive.
func (s *LotStore) Add(l Lot) error {
	if !l.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity %s for %s", ErrInvalidLot, l.Quantity, l.Symbol)
	}
	lot := l
	s.lots[l.Symbol] = append(s.lots[l.Symbol], &lot)

	// Keep ascending OpenedAt; SliceStable preserves insertion order as the
	// tie-break when timestamps collide.
	sort.SliceStable(s.lots[l.Symbol], func(i, j int) bool {
		return s.lots[l.Symbol][i].OpenedAt.Before(s.lots[l.Symbol][j].OpenedAt)
	})
	return nil
}

// Open returns copies of the open lots for symbol, oldest first.
func (s *LotStore) Open(symbol string) []Lot {
	lots := s.lots[symbol]
	out := make([]Lot, 0, len(lots))
	for _, l := range lots {
		out = append(out, *l)
	}
	return out
}

// Remove drops the lot with the given order ID if its quantity has reached
// zero. It is idempotent; removing an unknown or still-open lot is a no-op.
func (s *LotStore) Remove(orderID string) {
	for symbol, lots := range s.lots {
		for i, l := range lots {
			if l.OrderID == orderID && l.Quantity.IsZero() {
				s.lots[symbol] = append(lots[:i], lots[i+1:]...)
				return
			}
		}
	}
}

// Symbols returns every symbol with at least one open lot.
func (s *LotStore) Symbols() []string {
	syms := make([]string, 0, len(s.lots))
	for sym, lots := range s.lots {
		if len(lots) > 0 {
			syms = append(syms, sym)
		}
	}
	sort.Strings(syms)
	return syms
}

// CostBasis returns the total open cost (sum of quantity*price over open
// lots) for symbol, or for all symbols when symbol is empty.
func (s *LotStore) CostBasis(symbol string) decimal.Decimal {
	var total decimal.Decimal
	for sym, lots := range s.lots {
		if symbol != "" && sym != symbol {
			continue
		}
		for _, l := range lots {
			total = total.Add(l.Quantity.Mul(l.Price))
		}
	}
	return total
}
