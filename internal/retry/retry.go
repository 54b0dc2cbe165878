package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy describes a bounded exponential backoff with jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the delay added as random jitter
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 6,
		BaseDelay:   time.Second,
		MaxDelay:    64 * time.Second,
		Jitter:      0.5,
	}
}

// Do runs op until it succeeds, returns a non-retriable error, exhausts
// MaxAttempts, or ctx is cancelled. retriable decides whether a given
// error is worth another attempt; a nil retriable retries everything.
func (p Policy) Do(
	ctx context.Context,
	op func(ctx context.Context) error,
	retriable func(error) bool,
) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if retriable != nil && !retriable(lastErr) {
			return lastErr
		}

		if attempt == attempts-1 {
			break
		}

		if err := sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func (p Policy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	d := base << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}

	if p.Jitter > 0 {
		d += time.Duration(rand.Float64() * p.Jitter * float64(d))
	}

	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetriableStatus reports whether an HTTP status code indicates a
// transient server failure worth retrying.
func RetriableStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
