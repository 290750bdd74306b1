package resilience

import (
	"context"
	"time"

	"github.com/avast/retry-go/v5"
)

// RetryPolicy is the single retry/backoff configuration shared by every
// component needing redelivery (the event pipeline today; any future
// outbound path reuses it instead of hand-rolling its own ladder).
//
// MaxRetries counts retries after the first attempt: MaxRetries=3 with
// BaseDelay=1s and Multiplier=2 yields attempts at ~0s, 1s, 2s, 4s.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
	// OnRetry is invoked before each retry with the 0-based retry number
	// and the error that triggered it.
	OnRetry func(n uint, err error)
}

// DefaultRetryPolicy matches the delivery contract: three retries on an
// exponential 1s/2s/4s ladder.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Multiplier: 2,
	}
}

// Do runs op under the policy, honoring ctx cancellation between attempts.
// The last attempt's error is returned once the ladder is exhausted.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.Multiplier <= 1 {
		p.Multiplier = 2
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(p.MaxRetries) + 1),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			// n is 1-based: the first retry waits exactly BaseDelay.
			d := float64(p.BaseDelay)
			for i := uint(1); i < n; i++ {
				d *= p.Multiplier
			}
			return time.Duration(d)
		}),
		retry.LastErrorOnly(true),
	}
	if p.OnRetry != nil {
		opts = append(opts, retry.OnRetry(p.OnRetry))
	}

	return retry.New(opts...).Do(op)
}
