// Package httputil holds the retry policy used by the backend client.
//
// Only errors wrapped with [Retryable] are retried. The backend client wraps
// transport failures and the statuses [RetryableStatus] accepts; a 404 or an
// open circuit breaker comes back on the first attempt.
//
//	b := httputil.Backoff{Attempts: 3, Delay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}
//	err := b.Do(ctx, func(ctx context.Context) error {
//	    return client.fetch(ctx, path, &out)
//	})
package httputil
