package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/stockledger/ledger"
)

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "transactions.json")
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	j, err := NewJSON(path)
	assert.NoError(t, err)
	assert.NoError(t, j.Append(buyTx("b1", ts)))
	assert.NoError(t, j.Append(sellTx("s1", ts.Add(time.Hour))))

	// A fresh open reads back what was written.
	j2, err := NewJSON(path)
	assert.NoError(t, err)

	got, err := j2.LoadAll()
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].OrderID)
	assert.True(t, got[0].Quantity.Equal(dec("10.5")))
	assert.NotNil(t, got[1].Profit)
	assert.True(t, got[1].Profit.Equal(dec("52.50")))
	assert.Len(t, got[1].Matches, 1)
}

func TestJSONUpdateSurvivesReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "transactions.json")
	ts := time.Now().UTC()

	j, err := NewJSON(path)
	assert.NoError(t, err)
	assert.NoError(t, j.Append(buyTx("b1", ts)))

	amended := buyTx("b1", ts)
	amended.Quantity = dec("3")
	amended.Closed = false
	assert.NoError(t, j.Update(amended))

	j2, err := NewJSON(path)
	assert.NoError(t, err)
	got, err := j2.LoadAll()
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.True(t, got[0].Quantity.Equal(dec("3")))
}

func TestJSONUpdateUnknown(t *testing.T) {
	t.Parallel()

	j, err := NewJSON(filepath.Join(t.TempDir(), "x.json"))
	assert.NoError(t, err)
	assert.Error(t, j.Update(buyTx("ghost", time.Now())))
}

func TestJSONMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	j, err := NewJSON(filepath.Join(t.TempDir(), "nope.json"))
	assert.NoError(t, err)
	got, err := j.LoadAll()
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewJSON(path)
	assert.Error(t, err)
}

func TestJSONUsedAsLedgerStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.json")
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	store, err := NewJSON(path)
	assert.NoError(t, err)
	led, err := ledger.New(store)
	assert.NoError(t, err)

	_, err = led.Record(ledger.Fill{Symbol: "AAPL", Side: ledger.SideBuy, Quantity: dec("10"), Price: dec("100"), OrderID: "b1", Timestamp: ts})
	assert.NoError(t, err)
	_, err = led.Record(ledger.Fill{Symbol: "AAPL", Side: ledger.SideSell, Quantity: dec("4"), Price: dec("110"), OrderID: "s1", Timestamp: ts.Add(time.Hour)})
	assert.NoError(t, err)

	// Reload through a fresh store and ledger: lot state comes back.
	store2, err := NewJSON(path)
	assert.NoError(t, err)
	led2, err := ledger.New(store2)
	assert.NoError(t, err)

	lots := led2.OpenLots("AAPL")
	assert.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.Equal(dec("6")))

	rep := led2.ProfitReport()
	assert.True(t, rep.TotalProfit.Equal(dec("40")))
}
