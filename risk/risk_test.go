package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/stockledger/ledger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEvaluateBuyFundClamp(t *testing.T) {
	t.Parallel()

	lim := Limits{FundLimit: dec("1000")}
	in := Intent{Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("100"), Price: dec("10")}

	tests := []struct {
		name     string
		used     string
		wantQty  string
		clamped  bool
		allowed  bool
		wantCode string
	}{
		{"fits", "0", "100", false, true, ""},
		{"clamped to headroom", "800", "20", true, true, ""},
		{"fractional headroom floors", "995", "", false, false, CodeInsufficientFunds},
		{"exhausted", "1000", "", false, false, CodeInsufficientFunds},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Evaluate(lim, in, Exposure{UsedFunds: dec(tt.used)})
			assert.Equal(t, tt.allowed, d.Allowed)
			if tt.allowed {
				assert.True(t, d.Quantity.Equal(dec(tt.wantQty)), "got %s", d.Quantity)
				assert.Equal(t, tt.clamped, d.Clamped)
				assert.NoError(t, d.Err())
			} else {
				assert.Equal(t, tt.wantCode, d.Violations[0].Code)
				assert.ErrorIs(t, d.Err(), ErrInsufficientFunds)
			}
		})
	}
}

func TestEvaluateBuyPositionValueClamp(t *testing.T) {
	t.Parallel()

	lim := Limits{MaxPositionValue: dec("500")}

	t.Run("clamps with minimum one share", func(t *testing.T) {
		t.Parallel()
		// Headroom of 5 at price 10 floors to 0; clamp still grants one
		// share.
		in := Intent{Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("10"), Price: dec("10")}
		d := Evaluate(lim, in, Exposure{PositionCost: dec("495")})
		assert.True(t, d.Allowed)
		assert.True(t, d.Clamped)
		assert.True(t, d.Quantity.Equal(dec("1")), "got %s", d.Quantity)
	})

	t.Run("rejects at limit", func(t *testing.T) {
		t.Parallel()
		in := Intent{Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("1"), Price: dec("10")}
		d := Evaluate(lim, in, Exposure{PositionCost: dec("500")})
		assert.False(t, d.Allowed)
		assert.Equal(t, CodePositionLimit, d.Violations[0].Code)
		assert.ErrorIs(t, d.Err(), ErrPositionLimitExceeded)
	})

	t.Run("fund clamp applies before position clamp", func(t *testing.T) {
		t.Parallel()
		both := Limits{FundLimit: dec("1000"), MaxPositionValue: dec("150")}
		in := Intent{Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("50"), Price: dec("10")}
		d := Evaluate(both, in, Exposure{UsedFunds: dec("700"), PositionCost: dec("0")})
		// Fund headroom allows 30, position value allows 15.
		assert.True(t, d.Allowed)
		assert.True(t, d.Quantity.Equal(dec("15")), "got %s", d.Quantity)
		assert.True(t, d.Clamped)
	})
}

func TestEvaluateBuyUnlimited(t *testing.T) {
	t.Parallel()

	in := Intent{Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("1000000"), Price: dec("700")}
	d := Evaluate(Limits{}, in, Exposure{UsedFunds: dec("999999999")})
	assert.True(t, d.Allowed)
	assert.False(t, d.Clamped)
	assert.True(t, d.Quantity.Equal(in.Quantity))
}

func TestEvaluateSell(t *testing.T) {
	t.Parallel()

	in := Intent{Symbol: "AAPL", Side: ledger.SideSell, Quantity: dec("100"), Price: dec("10")}

	t.Run("clamps to available", func(t *testing.T) {
		t.Parallel()
		d := Evaluate(Limits{}, in, Exposure{Available: dec("60")})
		assert.True(t, d.Allowed)
		assert.True(t, d.Clamped)
		assert.True(t, d.Quantity.Equal(dec("60")))
	})

	t.Run("nothing available", func(t *testing.T) {
		t.Parallel()
		d := Evaluate(Limits{}, in, Exposure{Available: dec("0")})
		assert.False(t, d.Allowed)
		assert.Equal(t, CodeNoPosition, d.Violations[0].Code)
		assert.ErrorIs(t, d.Err(), ErrNoPosition)
	})

	t.Run("within available passes through", func(t *testing.T) {
		t.Parallel()
		d := Evaluate(Limits{}, in, Exposure{Available: dec("100")})
		assert.True(t, d.Allowed)
		assert.False(t, d.Clamped)
	})
}

func TestEvaluateInvalidIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Intent
	}{
		{"zero quantity", Intent{Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("0"), Price: dec("10")}},
		{"negative price", Intent{Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("1"), Price: dec("-1")}},
		{"unknown side", Intent{Symbol: "AAPL", Side: ledger.Side("HOLD"), Quantity: dec("1"), Price: dec("10")}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Evaluate(Limits{}, tt.in, Exposure{})
			assert.False(t, d.Allowed)
			assert.Equal(t, CodeInvalidIntent, d.Violations[0].Code)
			assert.ErrorIs(t, d.Err(), ErrInvalidIntent)
		})
	}
}
