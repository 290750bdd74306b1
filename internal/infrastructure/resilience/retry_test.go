package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicySucceedsEventually(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 2}

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicyExhaustsLadder(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 2}

	attempts := 0
	sentinel := errors.New("still down")
	err := policy.Do(context.Background(), func() error {
		attempts++
		return sentinel
	})

	// First attempt plus MaxRetries retries.
	assert.Equal(t, 4, attempts)
	assert.ErrorIs(t, err, sentinel)
}

func TestRetryPolicyBackoffSchedule(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: 20 * time.Millisecond, Multiplier: 2}

	var stamps []time.Time
	start := time.Now()
	_ = policy.Do(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		return errors.New("down")
	})

	require.Len(t, stamps, 4)
	assert.Less(t, stamps[0].Sub(start), 10*time.Millisecond)

	// The waits between attempts must follow the base-first ladder: 20ms,
	// 40ms, 80ms. Each delta is bounded above by the next rung, so a wrong
	// multiplier or an exponent starting one step too high fails here.
	expected := []time.Duration{20 * time.Millisecond, 40 * time.Millisecond, 80 * time.Millisecond}
	for i, want := range expected {
		delta := stamps[i+1].Sub(stamps[i])
		assert.GreaterOrEqual(t, delta, want, "retry %d waited too little", i+1)
		assert.Less(t, delta, 2*want, "retry %d waited too long", i+1)
	}
}

func TestRetryPolicyOnRetryCallback(t *testing.T) {
	var notified []uint
	policy := RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		OnRetry:    func(n uint, err error) { notified = append(notified, n) },
	}

	_ = policy.Do(context.Background(), func() error { return errors.New("down") })
	require.NotEmpty(t, notified)
	assert.Equal(t, uint(0), notified[0])
	for i := 1; i < len(notified); i++ {
		assert.Equal(t, notified[i-1]+1, notified[i])
	}
}

func TestRetryPolicyHonorsContextCancellation(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 10, BaseDelay: 50 * time.Millisecond, Multiplier: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	attempts := 0
	start := time.Now()
	err := policy.Do(ctx, func() error {
		attempts++
		return errors.New("down")
	})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "cancellation must cut the ladder short")
	assert.LessOrEqual(t, attempts, 2)
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	assert.Equal(t, 3, policy.MaxRetries)
	assert.Equal(t, time.Second, policy.BaseDelay)
	assert.Equal(t, float64(2), policy.Multiplier)
}
