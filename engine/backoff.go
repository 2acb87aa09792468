package engine

import (
	"context"
	"time"

	"github.com/rustyeddy/stockledger/metrics"
)

// Backoff is the single retry policy used for broker submissions: base
// interval doubled per attempt, bounded attempt count, context-aware waits.
type Backoff struct {
	Base        time.Duration
	MaxAttempts int
}

// DefaultBackoff retries three times starting at half a second.
var DefaultBackoff = Backoff{Base: 500 * time.Millisecond, MaxAttempts: 3}

// Retry calls fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. The last error is returned. It never sleeps after
// the final attempt.
func (b Backoff) Retry(ctx context.Context, fn func() error, retryable func(error) bool) error {
	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := b.Base

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == attempts-1 {
			return err
		}

		metrics.BrokerRetries.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
