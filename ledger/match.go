package ledger

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MatchResult describes how a sell quantity was consumed against open lots.
type MatchResult struct {
	Profit        decimal.Decimal
	ProfitPercent decimal.Decimal
	Cost          decimal.Decimal
	Matches       []LotMatch

	// Unmatched is the sell quantity left over after all open lots were
	// exhausted. A non-zero value is a reportable condition, not an error:
	// it signals a sell exceeding what this ledger has tracked (e.g. a
	// position acquired outside the ledger).
	Unmatched decimal.Decimal
}

// Match consumes open lots for symbol oldest-first against a sell of the
// given quantity and price. Fully consumed lots are removed; a partially
// consumed lot has its quantity reduced in place.
//
// Profit accumulates exactly (decimal); ProfitPercent is profit/cost*100
// when cost is positive, else zero.
func (s *LotStore) Match(symbol string, quantity, price decimal.Decimal) MatchResult {
	var res MatchResult
	remaining := quantity

	var kept []*Lot
	for _, lot := range s.lots[symbol] {
		if !remaining.IsPositive() {
			kept = append(kept, lot)
			continue
		}

		matched := decimal.Min(remaining, lot.Quantity)
		cost := matched.Mul(lot.Price)
		profit := matched.Mul(price.Sub(lot.Price))

		res.Cost = res.Cost.Add(cost)
		res.Profit = res.Profit.Add(profit)
		remaining = remaining.Sub(matched)

		closed := matched.Equal(lot.Quantity)
		res.Matches = append(res.Matches, LotMatch{
			LotOrderID: lot.OrderID,
			Quantity:   matched,
			Profit:     profit,
			Closed:     closed,
		})

		if closed {
			continue // lot fully consumed, drop it
		}
		lot.Quantity = lot.Quantity.Sub(matched)
		kept = append(kept, lot)
	}
	s.lots[symbol] = kept

	res.Unmatched = remaining
	if res.Cost.IsPositive() {
		res.ProfitPercent = res.Profit.Div(res.Cost).Mul(hundred)
	}
	return res
}
