package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{"BUY", SideBuy, false},
		{"SELL", SideSell, false},
		{"buy", "", true},
		{"Sell", "", true},
		{"", "", true},
		{"HOLD", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSide(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransactionAmount(t *testing.T) {
	t.Parallel()

	tx := Transaction{Quantity: dec("10.5"), Price: dec("3.30")}
	assert.True(t, tx.Amount().Equal(dec("34.65")))
}
