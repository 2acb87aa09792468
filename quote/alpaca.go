package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// Compile-time interface check.
var _ Feed = (*AlpacaFeed)(nil)

// AlpacaFeed pulls snapshots from the Alpaca market-data API.
type AlpacaFeed struct {
	client *marketdata.Client
}

func NewAlpacaFeed(apiKey, apiSecret string) *AlpacaFeed {
	return &AlpacaFeed{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
	}
}

// Quote returns the latest trade price and previous daily close.
func (f *AlpacaFeed) Quote(_ context.Context, symbol string) (Quote, error) {
	snap, err := f.client.GetSnapshot(symbol, marketdata.GetSnapshotRequest{})
	if err != nil {
		return Quote{}, fmt.Errorf("snapshot %s: %w", symbol, err)
	}
	if snap == nil || snap.LatestTrade == nil {
		return Quote{}, fmt.Errorf("snapshot %s: no trade data", symbol)
	}

	q := Quote{
		Symbol:    symbol,
		LastPrice: decimal.NewFromFloat(snap.LatestTrade.Price),
		At:        time.Now().UTC(),
	}
	if snap.PrevDailyBar != nil {
		q.PreviousClose = decimal.NewFromFloat(snap.PrevDailyBar.Close)
	}
	return q, nil
}
