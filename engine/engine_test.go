package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/stockledger/broker"
	"github.com/rustyeddy/stockledger/ledger"
	"github.com/rustyeddy/stockledger/risk"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeGateway returns scripted errors for the first len(submitErrs)
// submissions, then succeeds with sequential order IDs.
type fakeGateway struct {
	submitErrs   []error
	submits      int
	positions    []broker.Position
	positionsErr error
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) SubmitOrder(_ context.Context, req broker.OrderRequest) (broker.Confirmation, error) {
	f.submits++
	if f.submits <= len(f.submitErrs) {
		if err := f.submitErrs[f.submits-1]; err != nil {
			return broker.Confirmation{}, err
		}
	}
	return broker.Confirmation{OrderID: "ord-1"}, nil
}

func (f *fakeGateway) StockPositions(context.Context) ([]broker.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeGateway) AccountBalance(context.Context) (broker.Balance, error) {
	return broker.Balance{AvailableCash: dec("100000"), Currency: "USD"}, nil
}

func transient() error {
	return &broker.TransientError{Op: "submit", Err: errors.New("connection refused")}
}

func newTestEngine(t *testing.T, gw broker.Gateway, cfg Config) (*Engine, *ledger.Ledger) {
	t.Helper()

	led, err := ledger.New(ledger.NewMemoryStore())
	assert.NoError(t, err)
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = Backoff{Base: time.Millisecond, MaxAttempts: 3}
	}
	return New(gw, led, cfg, nil), led
}

func TestExecuteBuyFilled(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	eng, led := newTestEngine(t, gw, Config{})

	res, err := eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("10"), Price: dec("100"),
	})
	assert.NoError(t, err)
	assert.Equal(t, StateFilled, res.State)
	assert.NotNil(t, res.Transaction)
	assert.False(t, res.Transaction.Simulated)
	assert.Equal(t, "ord-1", res.Transaction.OrderID)

	assert.Len(t, led.OpenLots("AAPL"), 1)
	assert.Equal(t, 1, gw.submits)
}

func TestExecuteRetriesTransientThenFills(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{submitErrs: []error{transient(), transient()}}
	eng, _ := newTestEngine(t, gw, Config{})

	res, err := eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("1"), Price: dec("100"),
	})
	assert.NoError(t, err)
	assert.Equal(t, StateFilled, res.State)
	assert.Equal(t, 3, gw.submits)
}

func TestExecuteSimulatedFallback(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{submitErrs: []error{transient(), transient(), transient()}}
	eng, led := newTestEngine(t, gw, Config{FallbackToSimulated: true})

	res, err := eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("10"), Price: dec("100"),
	})
	assert.NoError(t, err)
	assert.Equal(t, StateSimulated, res.State)
	assert.True(t, res.Transaction.Simulated)
	assert.Contains(t, res.Transaction.OrderID, "sim-")
	assert.Equal(t, 3, gw.submits, "all attempts spent before falling back")

	// Simulated fills flow through the same lot accounting as real ones.
	lots := led.OpenLots("AAPL")
	assert.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.Equal(dec("10")))
}

func TestExecuteTransientWithoutFallbackFails(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{submitErrs: []error{transient(), transient(), transient()}}
	eng, led := newTestEngine(t, gw, Config{FallbackToSimulated: false})

	res, err := eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("10"), Price: dec("100"),
	})
	assert.ErrorIs(t, err, ErrExecutionFailed)
	assert.Equal(t, StateRejected, res.State)
	assert.Empty(t, led.OpenLots("AAPL"), "failed submission leaves no lot")
}

func TestExecutePermanentErrorNoFallback(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{submitErrs: []error{errors.New("account blocked")}}
	eng, led := newTestEngine(t, gw, Config{FallbackToSimulated: true})

	res, err := eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("10"), Price: dec("100"),
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrExecutionFailed)
	assert.Equal(t, StateRejected, res.State)
	assert.Equal(t, 1, gw.submits, "permanent errors are not retried")
	assert.Empty(t, led.OpenLots("AAPL"))
}

func TestExecuteRiskRejectionNoSubmission(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	eng, led := newTestEngine(t, gw, Config{
		Limits: risk.Limits{FundLimit: dec("100")},
	})

	res, err := eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("10"), Price: dec("100"),
	})
	assert.ErrorIs(t, err, risk.ErrInsufficientFunds)
	assert.Equal(t, StateRejected, res.State)
	assert.Equal(t, 0, gw.submits, "rejected orders never reach the broker")
	assert.Empty(t, led.Transactions())
}

func TestExecuteBuyClampedQuantitySubmitted(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	eng, led := newTestEngine(t, gw, Config{
		Limits: risk.Limits{FundLimit: dec("1000")},
	})

	res, err := eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("150"), Price: dec("10"),
	})
	assert.NoError(t, err)
	assert.True(t, res.Decision.Clamped)
	assert.True(t, res.Transaction.Quantity.Equal(dec("100")), "clamped to fund headroom")

	// A second oversized buy gets clamped to the remaining headroom of zero
	// and rejected.
	_, err = eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("100"), Price: dec("10"),
	})
	assert.ErrorIs(t, err, risk.ErrInsufficientFunds)
	assert.Len(t, led.Transactions(), 1)
}

func TestExecuteSellUsesBrokerAvailability(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{positions: []broker.Position{
		{Symbol: "AAPL", Quantity: dec("10"), AvailableQuantity: dec("4")},
	}}
	eng, led := newTestEngine(t, gw, Config{})

	_, err := led.Record(ledger.Fill{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("10"), Price: dec("100"),
		OrderID: "b1", Timestamp: time.Now(),
	})
	assert.NoError(t, err)

	res, err := eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideSell, Quantity: dec("10"), Price: dec("110"),
	})
	assert.NoError(t, err)
	assert.True(t, res.Decision.Clamped)
	assert.True(t, res.Transaction.Quantity.Equal(dec("4")), "broker availability wins over ledger quantity")
}

func TestExecuteSellFallsBackToLedgerQuantity(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{positionsErr: errors.New("api down")}
	eng, led := newTestEngine(t, gw, Config{})

	_, err := led.Record(ledger.Fill{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("10"), Price: dec("100"),
		OrderID: "b1", Timestamp: time.Now(),
	})
	assert.NoError(t, err)

	res, err := eng.Execute(context.Background(), Order{
		Symbol: "AAPL", Side: ledger.SideSell, Quantity: dec("10"), Price: dec("110"),
	})
	assert.NoError(t, err)
	assert.Equal(t, StateFilled, res.State)
	assert.True(t, res.Transaction.Quantity.Equal(dec("10")))
}

func TestBackoffRetry(t *testing.T) {
	t.Parallel()

	t.Run("stops on success", func(t *testing.T) {
		t.Parallel()
		calls := 0
		b := Backoff{Base: time.Millisecond, MaxAttempts: 5}
		err := b.Retry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return transient()
			}
			return nil
		}, broker.IsTransient)
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable", func(t *testing.T) {
		t.Parallel()
		calls := 0
		b := Backoff{Base: time.Millisecond, MaxAttempts: 5}
		err := b.Retry(context.Background(), func() error {
			calls++
			return errors.New("hard failure")
		}, broker.IsTransient)
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("respects attempt budget", func(t *testing.T) {
		t.Parallel()
		calls := 0
		b := Backoff{Base: time.Millisecond, MaxAttempts: 3}
		err := b.Retry(context.Background(), func() error {
			calls++
			return transient()
		}, broker.IsTransient)
		assert.True(t, broker.IsTransient(err))
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		b := Backoff{Base: time.Hour, MaxAttempts: 3}
		err := b.Retry(ctx, func() error { return transient() }, broker.IsTransient)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
