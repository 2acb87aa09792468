// Package oracle defines the decision source the monitor consults for each
// trading cycle. How decisions are produced (a model, a strategy, a human)
// is opaque here; the ledger only consumes the resulting instruction and
// quantity.
package oracle

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockledger/ledger"
)

// Instruction is what the oracle wants done.
type Instruction string

const (
	Buy  Instruction = "buy"
	Sell Instruction = "sell"
	Hold Instruction = "hold"
)

// ParseInstruction maps s to an Instruction. Unmapped values are an error;
// there is no keyword guessing.
func ParseInstruction(s string) (Instruction, error) {
	switch s {
	case string(Buy):
		return Buy, nil
	case string(Sell):
		return Sell, nil
	case string(Hold):
		return Hold, nil
	}
	return "", fmt.Errorf("parse instruction: unknown value %q", s)
}

// Features is the per-symbol snapshot handed to the oracle.
type Features struct {
	Symbol        string
	LastPrice     decimal.Decimal
	PreviousClose decimal.Decimal
	Position      ledger.Position
	LastBuy       *ledger.BuyPrice
	AvailableCash decimal.Decimal
}

// Decision is the oracle's answer for one cycle.
type Decision struct {
	Instruction Instruction
	Quantity    decimal.Decimal
	Reason      string
}

// Oracle produces a trading decision from the current features.
type Oracle interface {
	Decide(ctx context.Context, f Features) (Decision, error)
}

// Noop always holds. Useful as a baseline and for running the harness
// without a decision backend.
type Noop struct{}

func (Noop) Decide(_ context.Context, _ Features) (Decision, error) {
	return Decision{Instruction: Hold, Reason: "noop"}, nil
}
