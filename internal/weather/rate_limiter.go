package weather

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedFetcher wraps a Fetcher with a token bucket shared by every
// session of the process.
type RateLimitedFetcher struct {
	fetcher Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher creates a new rate limited fetcher.
// rps is the maximum requests per second allowed (can be fractional);
// burst is the maximum burst size allowed.
func NewRateLimitedFetcher(fetcher Fetcher, rps float64, burst int) *RateLimitedFetcher {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedFetcher{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// GetReport waits for limiter permission, then forwards to the wrapped fetcher.
// A cancelled wait is reported as a transport failure since no request was sent.
func (r *RateLimitedFetcher) GetReport(ctx context.Context, id string) (*Report, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait canceled: %v", ErrTransport, err)
	}
	return r.fetcher.GetReport(ctx, id)
}
