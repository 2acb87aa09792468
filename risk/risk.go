// Package risk validates and clamps intended orders against configured fund
// and position limits. Evaluate is a pure function of its inputs and does no
// I/O, so it is independently unit-testable.
package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockledger/ledger"
)

var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrPositionLimitExceeded = errors.New("position limit exceeded")
	ErrNoPosition            = errors.New("no position")
	ErrInvalidIntent         = errors.New("invalid order intent")
)

// Limits is the configured risk envelope. A zero value means unlimited.
type Limits struct {
	// FundLimit caps total capital committed across all symbols.
	FundLimit decimal.Decimal
	// MaxPositionValue caps the cost basis committed to a single symbol.
	MaxPositionValue decimal.Decimal
}

// Intent is the order a caller wants to place.
type Intent struct {
	Symbol   string
	Side     ledger.Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// Exposure is the current state Evaluate judges the intent against.
type Exposure struct {
	// UsedFunds is the cost basis committed across all symbols.
	UsedFunds decimal.Decimal
	// PositionCost is the cost basis already committed to the intent's
	// symbol.
	PositionCost decimal.Decimal
	// Available is the sellable quantity for the intent's symbol. The
	// broker is the authority here, not the ledger.
	Available decimal.Decimal
}

// Violation is one coded reason an intent was rejected.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of evaluating an intent. When Allowed, Quantity
// carries the (possibly clamped) quantity to submit.
type Decision struct {
	Allowed    bool
	Quantity   decimal.Decimal
	Clamped    bool
	Violations []Violation
}

func (d *Decision) reject(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Err maps a rejected decision to its taxonomy error; it returns nil for an
// allowed decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if len(d.Violations) == 0 {
		return ErrInvalidIntent
	}
	v := d.Violations[0]
	switch v.Code {
	case CodeInsufficientFunds:
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, v.Msg)
	case CodePositionLimit:
		return fmt.Errorf("%w: %s", ErrPositionLimitExceeded, v.Msg)
	case CodeNoPosition:
		return fmt.Errorf("%w: %s", ErrNoPosition, v.Msg)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidIntent, v.Msg)
	}
}

// Violation codes.
const (
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodePositionLimit     = "POSITION_LIMIT_EXCEEDED"
	CodeNoPosition        = "NO_POSITION"
	CodeInvalidIntent     = "INVALID_INTENT"
)

var one = decimal.NewFromInt(1)

// Evaluate authorizes, clamps, or rejects an intent.
//
// BUY: if the fund limit would be exceeded, quantity is clamped to
// floor(remaining headroom / price); a clamp to zero or below is an
// insufficient-funds rejection. Independently, the per-symbol position value
// cap clamps further (minimum one share) or rejects when no headroom
// remains.
//
// SELL: quantity is clamped to the broker-reported available quantity;
// nothing available is a no-position rejection.
func Evaluate(lim Limits, in Intent, exp Exposure) Decision {
	d := Decision{Allowed: true, Quantity: in.Quantity}

	if !in.Quantity.IsPositive() {
		d.reject(CodeInvalidIntent, fmt.Sprintf("quantity %s must be positive", in.Quantity))
		return d
	}
	if !in.Price.IsPositive() {
		d.reject(CodeInvalidIntent, fmt.Sprintf("price %s must be positive", in.Price))
		return d
	}

	switch in.Side {
	case ledger.SideBuy:
		evaluateBuy(lim, in, exp, &d)
	case ledger.SideSell:
		evaluateSell(in, exp, &d)
	default:
		d.reject(CodeInvalidIntent, fmt.Sprintf("unknown side %q", in.Side))
	}
	return d
}

func evaluateBuy(lim Limits, in Intent, exp Exposure, d *Decision) {
	amount := d.Quantity.Mul(in.Price)

	if lim.FundLimit.IsPositive() && exp.UsedFunds.Add(amount).GreaterThan(lim.FundLimit) {
		headroom := lim.FundLimit.Sub(exp.UsedFunds)
		clamped := headroom.Div(in.Price).Floor()
		if !clamped.IsPositive() {
			d.reject(CodeInsufficientFunds,
				fmt.Sprintf("used %s of fund limit %s, no headroom for %s@%s",
					exp.UsedFunds, lim.FundLimit, in.Quantity, in.Price))
			return
		}
		d.Quantity = clamped
		d.Clamped = true
		amount = d.Quantity.Mul(in.Price)
	}

	if lim.MaxPositionValue.IsPositive() && exp.PositionCost.Add(amount).GreaterThan(lim.MaxPositionValue) {
		headroom := lim.MaxPositionValue.Sub(exp.PositionCost)
		if !headroom.IsPositive() {
			d.reject(CodePositionLimit,
				fmt.Sprintf("position value %s already at limit %s for %s",
					exp.PositionCost, lim.MaxPositionValue, in.Symbol))
			return
		}
		clamped := decimal.Max(one, headroom.Div(in.Price).Floor())
		d.Quantity = clamped
		d.Clamped = true
	}
}

func evaluateSell(in Intent, exp Exposure, d *Decision) {
	if !exp.Available.IsPositive() {
		d.reject(CodeNoPosition, fmt.Sprintf("no sellable quantity for %s", in.Symbol))
		return
	}
	if d.Quantity.GreaterThan(exp.Available) {
		d.Quantity = exp.Available
		d.Clamped = true
	}
}
