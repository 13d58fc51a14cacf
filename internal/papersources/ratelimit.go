package papersources

import "golang.org/x/time/rate"

// RateLimiter paces requests to one upstream with a token bucket. The
// embedded limiter supplies Wait and Allow and is safe for concurrent use.
type RateLimiter struct {
	*rate.Limiter
}

// NewRateLimiter allows perSecond requests on average and bursts of up to
// burst requests. burst is at least one.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))}
}

// SetRate changes the sustained rate and keeps the burst.
func (r *RateLimiter) SetRate(perSecond float64) {
	r.SetLimit(rate.Limit(perSecond))
}
