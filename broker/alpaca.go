package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"github.com/rustyeddy/stockledger/ledger"
)

// Compile-time interface check.
var _ Gateway = (*Alpaca)(nil)

// Alpaca is the Gateway backed by the Alpaca trading API. Responses are
// converted to this package's structs at the boundary; the ledger core never
// sees SDK types.
type Alpaca struct {
	client *alpaca.Client
}

// NewAlpaca creates an Alpaca gateway. baseURL selects the paper or live
// endpoint.
func NewAlpaca(apiKey, apiSecret, baseURL string) *Alpaca {
	return &Alpaca{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
	}
}

// Name returns "alpaca".
func (a *Alpaca) Name() string { return "alpaca" }

// alpacaSides is the explicit side mapping; anything not listed is an
// ErrUnknownEnumValue.
var alpacaSides = map[ledger.Side]alpaca.Side{
	ledger.SideBuy:  alpaca.Buy,
	ledger.SideSell: alpaca.Sell,
}

// SubmitOrder places a day market order. The SDK client manages its own
// timeouts; ctx is accepted for interface symmetry.
func (a *Alpaca) SubmitOrder(_ context.Context, req OrderRequest) (Confirmation, error) {
	side, ok := alpacaSides[req.Side]
	if !ok {
		return Confirmation{}, fmt.Errorf("%w: side %q", ErrUnknownEnumValue, req.Side)
	}

	qty := req.Quantity
	order, err := a.client.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:      req.Symbol,
		Qty:         &qty,
		Side:        side,
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	})
	if err != nil {
		return Confirmation{}, classify("submit order", err)
	}
	return Confirmation{OrderID: order.ID}, nil
}

// StockPositions returns current holdings converted to broker.Position.
func (a *Alpaca) StockPositions(_ context.Context) ([]Position, error) {
	positions, err := a.client.GetPositions()
	if err != nil {
		return nil, classify("get positions", err)
	}

	out := make([]Position, 0, len(positions))
	for _, p := range positions {
		out = append(out, Position{
			Symbol:            p.Symbol,
			Quantity:          p.Qty,
			AvailableQuantity: p.QtyAvailable,
			CostPrice:         p.AvgEntryPrice,
			Currency:          "USD",
		})
	}
	return out, nil
}

// AccountBalance returns the account's spendable cash.
func (a *Alpaca) AccountBalance(_ context.Context) (Balance, error) {
	acct, err := a.client.GetAccount()
	if err != nil {
		return Balance{}, classify("get account", err)
	}
	return Balance{AvailableCash: acct.Cash, Currency: acct.Currency}, nil
}

// classify wraps rate-limit, server and network failures as transient;
// everything else is a hard error.
func classify(op string, err error) error {
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return &TransientError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransientError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
