package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Default policy values, shared by the relay and the chat agent so both
// sides of the system space their retries identically.
const (
	DefaultBase       = 1200 * time.Millisecond
	DefaultJitter     = 300 * time.Millisecond
	DefaultMaxRetries = 3
)

// Policy computes backoff delays for bounded retries. It is deliberately
// decoupled from any networking so it can be unit-tested on its own: the
// caller decides which errors are worth retrying.
type Policy struct {
	// Base is the delay before the first retry; each subsequent retry
	// doubles it.
	Base time.Duration
	// Jitter is the upper bound of the random component added to every delay.
	Jitter time.Duration
	// MaxRetries is the number of retries after the initial attempt, so a
	// policy permits MaxRetries+1 attempts in total.
	MaxRetries int
}

// Default returns the policy both components ship with.
func Default() Policy {
	return Policy{Base: DefaultBase, Jitter: DefaultJitter, MaxRetries: DefaultMaxRetries}
}

// Delay returns the wait before retry k (0-based, so k=0 is the first retry
// after the initial failed attempt): Base*2^k plus a uniformly random jitter
// in [0, Jitter].
func (p Policy) Delay(k int) time.Duration {
	d := p.Base << uint(k)
	if p.Jitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.Jitter) + 1))
	}
	return d
}

// Attempts returns the total number of attempts the policy permits.
func (p Policy) Attempts() int {
	return p.MaxRetries + 1
}

// Do runs op up to MaxRetries+1 times, sleeping Delay(k) between attempts.
// It stops early when op succeeds, when retryable reports the failure as
// permanent, or when ctx is done during a backoff wait. The returned error
// is the one from the final attempt.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error, retryable func(error) bool) error {
	var err error
	for attempt := 0; attempt < p.Attempts(); attempt++ {
		if attempt > 0 {
			if serr := sleep(ctx, p.Delay(attempt-1)); serr != nil {
				return serr
			}
		}
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
	}
	return err
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
