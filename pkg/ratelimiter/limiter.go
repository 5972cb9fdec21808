package ratelimiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate.Limiter with the bucket shape the
// feed client uses.
type RateLimiter struct {
	limiter *rate.Limiter
	rps     int
	burst   int
}

// NewFromRPS builds a limiter allowing rps requests per second with the given
// burst. Non-positive rps falls back to 1; non-positive burst falls back to
// rps.
func NewFromRPS(rps, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = rps
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
	}
}

// Wait blocks until a token is available or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// TryAcquire attempts to take a token without blocking.
func (rl *RateLimiter) TryAcquire() bool {
	return rl.limiter.Allow()
}

// Stats returns the approximate available tokens and the bucket capacity.
func (rl *RateLimiter) Stats() (available, capacity int) {
	available = int(rl.limiter.Tokens())
	if available < 0 {
		available = 0
	}
	return available, rl.burst
}

// PerHost hands each host its own bucket so one throttled mirror does not
// starve the rest.
type PerHost struct {
	limiters map[string]*RateLimiter
	mutex    sync.RWMutex
	rps      int
	burst    int
}

func NewPerHost(rps, burst int) *PerHost {
	return &PerHost{
		limiters: make(map[string]*RateLimiter),
		rps:      rps,
		burst:    burst,
	}
}

// Wait blocks until the named host's bucket has a token.
func (p *PerHost) Wait(ctx context.Context, host string) error {
	return p.getLimiter(host).Wait(ctx)
}

// TryAcquire attempts to take a token for the named host without blocking.
func (p *PerHost) TryAcquire(host string) bool {
	return p.getLimiter(host).TryAcquire()
}

func (p *PerHost) getLimiter(host string) *RateLimiter {
	p.mutex.RLock()
	limiter, exists := p.limiters[host]
	p.mutex.RUnlock()
	if exists {
		return limiter
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if limiter, exists := p.limiters[host]; exists {
		return limiter
	}
	limiter = NewFromRPS(p.rps, p.burst)
	p.limiters[host] = limiter
	return limiter
}

// Stats returns available tokens and capacity per host seen so far.
func (p *PerHost) Stats() map[string][2]int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	stats := make(map[string][2]int, len(p.limiters))
	for host, limiter := range p.limiters {
		available, capacity := limiter.Stats()
		stats[host] = [2]int{available, capacity}
	}
	return stats
}
