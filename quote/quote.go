// Package quote defines the quote feed consumed by the monitor and provides
// the Alpaca market-data implementation plus a static feed for tests.
package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the last trade and previous close for one symbol.
type Quote struct {
	Symbol        string
	LastPrice     decimal.Decimal
	PreviousClose decimal.Decimal
	At            time.Time
}

// Feed supplies quotes for monitored symbols.
type Feed interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// Static is a Feed backed by a fixed map, for offline runs and tests.
type Static struct {
	mu     sync.Mutex
	quotes map[string]Quote
}

func NewStatic() *Static {
	return &Static{quotes: make(map[string]Quote)}
}

// Set installs or replaces the quote for a symbol.
func (s *Static) Set(q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.Symbol] = q
}

func (s *Static) Quote(_ context.Context, symbol string) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("no quote for %q", symbol)
	}
	return q, nil
}
