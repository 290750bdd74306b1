/*
Package resilience centralizes failure-handling primitives for delivery
paths: a three-state circuit breaker and a shared retry/backoff policy.

The breaker guards the collector-facing sink so sustained outages fail fast
to the durable fallback instead of walking the full retry ladder per batch:

	breaker := resilience.New("event-sink", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	err := breaker.Do(func() error { return sink.Send(ctx, batch) })

RetryPolicy is the one retry configuration in the codebase; components that
need redelivery take it as a value rather than hand-rolling backoff:

	policy := resilience.DefaultRetryPolicy() // 1s, 2s, 4s
	err := policy.Do(ctx, func() error { return send() })
*/
package resilience
