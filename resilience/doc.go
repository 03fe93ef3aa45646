// Package resilience retries operations that fail transiently, such as
// outgoing HTTP calls made by http/request nodes.
//
//	out, err := resilience.Retry(ctx, resilience.RetryConfig{MaxAttempts: 3}, func() (T, error) {
//	    ...
//	    return zero, resilience.Retryable(err)
//	})
package resilience
