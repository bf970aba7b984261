package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter is the contract shared by the in-memory and DynamoDB limiters
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter keeps a per-key request log and allows at most
// limit requests within the trailing window. State is process-local;
// use DistributedRateLimiter when replicas must share counters.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*requestWindow
	limit      int
	windowSize time.Duration
}

type requestWindow struct {
	mu       sync.Mutex
	requests []time.Time
}

// NewSlidingWindowLimiter creates a sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string]*requestWindow),
		limit:      limit,
		windowSize: windowSize,
	}
}

// Allow reports whether a request under key is within the limit
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	w, ok := l.windows[key]
	if !ok {
		w = &requestWindow{}
		l.windows[key] = w
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := time.Now().Add(-l.windowSize)
	kept := w.requests[:0]
	for _, at := range w.requests {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	w.requests = kept

	if len(w.requests) >= l.limit {
		return false, nil
	}
	w.requests = append(w.requests, time.Now())
	return true, nil
}

// Reset clears the window for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// IPRateLimiter limits requests per client IP
type IPRateLimiter struct {
	limiter RateLimiter
}

// NewIPRateLimiter creates an IP rate limiter with a per-minute budget
func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow reports whether a request from the given IP is within the limit
func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	return l.limiter.Allow(ctx, fmt.Sprintf("ip:%s", ip))
}

// UserRateLimiter limits requests per authenticated user
type UserRateLimiter struct {
	limiter RateLimiter
}

// NewUserRateLimiter creates a user rate limiter with a per-minute budget
func NewUserRateLimiter(requestsPerMinute int) *UserRateLimiter {
	return &UserRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow reports whether a request from the given user is within the limit
func (l *UserRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.limiter.Allow(ctx, fmt.Sprintf("user:%s", userID))
}
