// Package resilience provides the admission controls the sleepy transport
// applies to outbound gateway requests.
//
//   - Bulkhead: caps the number of requests outstanding at once
//   - RateLimiter: caps the request rate with a token bucket
//
// Neither retries anything. A request that cannot be admitted fails with
// ErrBulkheadFull, ErrBulkheadTimeout or the context error, and the
// caller decides what to do next.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 8, MaxWait: time.Second})
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 50, Burst: 10})
//
//	err := bh.Execute(ctx, func() error {
//	    if err := rl.Wait(ctx); err != nil {
//	        return err
//	    }
//	    return send(ctx)
//	})
package resilience
