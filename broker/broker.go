// Package broker defines the Gateway interface the execution engine submits
// orders through, and provides the Alpaca and paper implementations.
package broker

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockledger/ledger"
)

// Gateway abstracts the brokerage used for order execution and account
// state. Calls may block on network I/O; the engine never holds the ledger
// lock across them.
type Gateway interface {
	// Name returns the gateway identifier (e.g. "alpaca", "paper").
	Name() string

	// SubmitOrder sends a market order for execution.
	SubmitOrder(ctx context.Context, req OrderRequest) (Confirmation, error)

	// StockPositions returns the broker's view of current holdings. The
	// available quantity reported here is the authority for how much may
	// be sold.
	StockPositions(ctx context.Context) ([]Position, error)

	// AccountBalance returns the broker's view of spendable cash.
	AccountBalance(ctx context.Context) (Balance, error)
}

// OrderRequest is a market order intent, already risk-checked.
type OrderRequest struct {
	Symbol   string
	Side     ledger.Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// Confirmation is the broker's acknowledgement of a submitted order.
type Confirmation struct {
	OrderID string
}

// Position is one holding as reported by the broker.
type Position struct {
	Symbol            string
	Quantity          decimal.Decimal
	AvailableQuantity decimal.Decimal
	CostPrice         decimal.Decimal
	Currency          string
}

// Balance is the broker-reported account cash.
type Balance struct {
	AvailableCash decimal.Decimal
	Currency      string
}

// ErrUnknownEnumValue is returned when a gateway cannot map a value (side,
// status) across its boundary. Unmapped values fail hard; they are never
// guessed from substrings.
var ErrUnknownEnumValue = errors.New("unknown enum value")

// TransientError marks a failure worth retrying: connection trouble or a
// rate limit, as opposed to a definitive rejection.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable broker failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
