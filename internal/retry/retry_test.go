package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-chat/internal/retry"
)

// fastPolicy keeps test runtime negligible while preserving the shape of
// the real policy.
func fastPolicy() retry.Policy {
	return retry.Policy{Base: time.Millisecond, Jitter: 0, MaxRetries: 3}
}

func TestPolicy_Delay(t *testing.T) {
	p := retry.Default()

	t.Run("EveryDelayWithinBounds", func(t *testing.T) {
		// Sample repeatedly: jitter is random, the bounds are not.
		for k := 0; k <= 2; k++ {
			lower := p.Base << uint(k)
			upper := lower + p.Jitter
			for i := 0; i < 50; i++ {
				d := p.Delay(k)
				assert.GreaterOrEqual(t, d, lower, "delay below base for k=%d", k)
				assert.LessOrEqual(t, d, upper, "delay above base+jitter for k=%d", k)
			}
		}
	})

	t.Run("ExpectedDelayStrictlyIncreases", func(t *testing.T) {
		// The deterministic component doubles each step, and the jitter is
		// bounded by less than one base, so even worst-case jitter cannot
		// make a later delay's floor overlap an earlier delay's ceiling.
		for k := 0; k < 2; k++ {
			ceiling := (p.Base << uint(k)) + p.Jitter
			nextFloor := p.Base << uint(k+1)
			assert.Greater(t, nextFloor, ceiling)
		}
	})

	t.Run("NoJitter", func(t *testing.T) {
		p := retry.Policy{Base: 100 * time.Millisecond, Jitter: 0, MaxRetries: 3}
		assert.Equal(t, 100*time.Millisecond, p.Delay(0))
		assert.Equal(t, 200*time.Millisecond, p.Delay(1))
		assert.Equal(t, 400*time.Millisecond, p.Delay(2))
	})
}

func TestPolicy_Attempts(t *testing.T) {
	assert.Equal(t, 4, retry.Default().Attempts())
}

func TestPolicy_Do(t *testing.T) {
	ctx := context.Background()
	errTransient := errors.New("transient")
	errPermanent := errors.New("permanent")
	alwaysRetry := func(error) bool { return true }

	t.Run("StopsAfterMaxAttempts", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(ctx, func(context.Context) error {
			calls++
			return errTransient
		}, alwaysRetry)

		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 4, calls, "must terminate after MaxRetries+1 attempts")
	})

	t.Run("SucceedsMidway", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(ctx, func(context.Context) error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		}, alwaysRetry)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("PermanentErrorNotRetried", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(ctx, func(context.Context) error {
			calls++
			return errPermanent
		}, func(err error) bool { return !errors.Is(err, errPermanent) })

		assert.ErrorIs(t, err, errPermanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("CanceledDuringBackoff", func(t *testing.T) {
		p := retry.Policy{Base: time.Minute, Jitter: 0, MaxRetries: 3}
		ctx, cancel := context.WithCancel(context.Background())

		calls := 0
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := p.Do(ctx, func(context.Context) error {
			calls++
			return errTransient
		}, alwaysRetry)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls, "no further attempt after cancellation")
	})
}
