// Package ledger tracks open buy lots per symbol, matches sells against them
// using FIFO to compute realized profit, and keeps the append-only
// transaction history that the rest of the system reports from.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a transaction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide maps s to a Side. Unmapped values are an error, never guessed.
func ParseSide(s string) (Side, error) {
	switch s {
	case string(SideBuy):
		return SideBuy, nil
	case string(SideSell):
		return SideSell, nil
	}
	return "", fmt.Errorf("parse side: unknown value %q", s)
}

// LotMatch records one buy lot consumed (fully or partially) by a sell.
type LotMatch struct {
	LotOrderID string          `json:"lot_order_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Profit     decimal.Decimal `json:"profit"`
	Closed     bool            `json:"closed"` // the lot was fully consumed
}

// Transaction is an immutable record of one executed (or simulated) order.
// The set of transactions never shrinks; a BUY's Quantity and Closed fields
// are amended in place as later sells consume its lot.
type Transaction struct {
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	OrderID   string          `json:"order_id"`
	Timestamp time.Time       `json:"timestamp"`
	Simulated bool            `json:"simulated"`
	Closed    bool            `json:"closed"` // BUY only: fully matched by later sells

	// SELL only.
	Profit        *decimal.Decimal `json:"profit,omitempty"`
	ProfitPercent *decimal.Decimal `json:"profit_percent,omitempty"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	Matches       []LotMatch       `json:"matches,omitempty"`
	Unmatched     decimal.Decimal  `json:"unmatched"`
}

// Amount returns quantity * price.
func (t Transaction) Amount() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}
