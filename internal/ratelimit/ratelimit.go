// Package ratelimit spaces out requests to the provider so a multi-page
// refresh cycle stays polite.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/internradar/internradar/internal/model"
)

// Limiter enforces a minimum delay between consecutive provider requests.
type Limiter struct {
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// NewLimiter creates a limiter that enforces minDelay between requests.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{minDelay: minDelay}
}

// Wait blocks until enough time has passed since the previous request.
// Returns an error if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()

	if l.lastCall.IsZero() || now.Sub(l.lastCall) >= l.minDelay {
		l.lastCall = now
		l.mu.Unlock()
		return nil
	}

	remaining := l.minDelay - now.Sub(l.lastCall)
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait: %w", ctx.Err())
	case <-time.After(remaining):
	}

	l.mu.Lock()
	l.lastCall = time.Now()
	l.mu.Unlock()

	return nil
}

// Fetcher is a decorator that waits on the limiter before delegating to the
// wrapped PageFetcher. All page fetches in a cycle share one limiter.
type Fetcher struct {
	inner   model.PageFetcher
	limiter *Limiter
}

// NewFetcher wraps a PageFetcher with request spacing.
func NewFetcher(inner model.PageFetcher, limiter *Limiter) *Fetcher {
	return &Fetcher{inner: inner, limiter: limiter}
}

// FetchPage waits for the limiter to allow a request, then delegates.
func (f *Fetcher) FetchPage(ctx context.Context, offset int) ([]model.RawListing, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return f.inner.FetchPage(ctx, offset)
}
