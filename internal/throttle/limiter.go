// Package throttle paces outbound requests and successive imports.
package throttle

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter applies a token bucket per host
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewLimiter creates a limiter; requestsPerSecond <= 0 disables pacing
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	r := rate.Inf
	if requestsPerSecond > 0 {
		r = rate.Limit(requestsPerSecond)
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// Wait blocks until a request to rawURL is allowed
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.forHost(host).Wait(ctx)
}

// Throttle slows host down to at most one request per interval.
// It never raises the rate, so repeated calls are harmless.
func (l *Limiter) Throttle(host string, interval time.Duration) {
	if interval <= 0 {
		return
	}
	slower := rate.Every(interval)

	lim := l.forHost(host)
	if lim.Limit() <= slower {
		return
	}
	lim.SetLimit(slower)
	lim.SetBurst(1)
}

// Limit returns the current rate for host
func (l *Limiter) Limit(host string) rate.Limit {
	return l.forHost(host).Limit()
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[host] = lim
	}
	return lim
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	return parsed.Host, nil
}
