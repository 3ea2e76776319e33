package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

const (
	// ResourceCore is the quota bucket for most REST endpoints.
	ResourceCore = "core"

	// ResourceSearch is the quota bucket for /search endpoints.
	ResourceSearch = "search"

	// MaxReactiveWait bounds how long Wait sleeps for a quota reset.
	// Longer resets are left to the server and the retry policy.
	MaxReactiveWait = 10 * time.Second

	// HeaderRateLimit is the rate limit header.
	HeaderRateLimit = "X-RateLimit-Limit"

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"

	// HeaderRateResource names the quota bucket a response counted against.
	HeaderRateResource = "X-RateLimit-Resource"
)

// quota is the last known state of one resource bucket.
type quota struct {
	limit     int
	remaining int
	reset     time.Time
	known     bool
}

// RateLimiter combines a client-side token bucket with the quota GitHub
// reports in response headers, tracked per resource.
type RateLimiter struct {
	mu     sync.Mutex
	quotas map[string]*quota
	bucket *rate.Limiter
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests on average.
func NewRateLimiter(perSecond float64) *RateLimiter {
	return &RateLimiter{
		quotas: make(map[string]*quota),
		bucket: rate.NewLimiter(rate.Limit(perSecond), 1),
		now:    time.Now,
	}
}

// Wait blocks until a request against resource may be sent.
func (r *RateLimiter) Wait(ctx context.Context, resource string) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	q := r.quotas[resource]
	var wait time.Duration
	if q != nil && q.known && q.remaining <= 0 {
		wait = q.reset.Sub(r.now())
	}
	r.mu.Unlock()

	if wait <= 0 || wait > MaxReactiveWait {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// UpdateFromResponse records the quota reported by resp.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil || resp.Header.Get(HeaderRateRemaining) == "" {
		return
	}
	resource := resp.Header.Get(HeaderRateResource)
	if resource == "" {
		resource = ResourceCore
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	q := r.quotas[resource]
	if q == nil {
		q = &quota{}
		r.quotas[resource] = q
	}
	if v, err := strconv.Atoi(resp.Header.Get(HeaderRateRemaining)); err == nil {
		q.remaining = v
		q.known = true
	}
	if v, err := strconv.Atoi(resp.Header.Get(HeaderRateLimit)); err == nil {
		q.limit = v
	}
	if v, err := strconv.ParseInt(resp.Header.Get(HeaderRateReset), 10, 64); err == nil {
		q.reset = time.Unix(v, 0)
	}
}

// Quota returns the last known allowance of resource. ok is false before
// any response reported it.
func (r *RateLimiter) Quota(resource string) (domain.RateQuota, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.quotas[resource]
	if q == nil || !q.known {
		return domain.RateQuota{}, false
	}
	return domain.RateQuota{Limit: q.limit, Remaining: q.remaining, Reset: q.reset}, true
}
