package interceptors

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"golang.org/x/time/rate"
)

// RateLimit blocks each request until limiter allows it or ctx is done.
// The options pass through unchanged.
func RateLimit(limiter *rate.Limiter) fetcher.Interceptor {
	return func(ctx context.Context, opts fetcher.RequestOptions, _ string) (fetcher.RequestOptions, error) {
		if limiter == nil {
			return opts, nil
		}
		if err := limiter.Wait(ctx); err != nil {
			return fetcher.RequestOptions{}, fmt.Errorf("rate limit: %w", err)
		}
		return opts, nil
	}
}

// PerSecond returns a limiter allowing rps requests per second with a burst
// of one, or nil when rps is not positive.
func PerSecond(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}
