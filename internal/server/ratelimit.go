package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter tracks per-client request rates and daily upload volume.
// Clients are identified by IP address.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	maxUploadPerDay   int64

	clients map[string]*clientUsage
}

// clientUsage holds the sliding request window and daily upload counter for
// one client.
type clientUsage struct {
	requests []time.Time
	uploaded int64
	dayStart time.Time
}

// NewRateLimiter creates a rate limiter. A zero limit disables that check.
func NewRateLimiter(requestsPerMinute int, maxUploadPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		maxUploadPerDay:   maxUploadPerDay,
		clients:           make(map[string]*clientUsage),
	}
}

// Allow records a request of the given upload size for the client, or
// returns a LimitExceededError if a limit would be crossed.
func (rl *RateLimiter) Allow(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.evictIdleLocked(now)

	usage, ok := rl.clients[clientID]
	if !ok {
		usage = &clientUsage{dayStart: now}
		rl.clients[clientID] = usage
	}

	if now.Sub(usage.dayStart) >= 24*time.Hour {
		usage.uploaded = 0
		usage.dayStart = now
	}

	usage.requests = pruneOlderThan(usage.requests, now.Add(-time.Minute))

	if rl.requestsPerMinute > 0 && len(usage.requests) >= rl.requestsPerMinute {
		retry := time.Minute - now.Sub(usage.requests[0])
		return &LimitExceededError{
			Kind:       "requests_per_minute",
			Limit:      int64(rl.requestsPerMinute),
			RetryAfter: retry,
		}
	}

	if rl.maxUploadPerDay > 0 && usage.uploaded+dataSize > rl.maxUploadPerDay {
		retry := 24*time.Hour - now.Sub(usage.dayStart)
		return &LimitExceededError{
			Kind:       "upload_per_day",
			Limit:      rl.maxUploadPerDay,
			RetryAfter: retry,
		}
	}

	usage.requests = append(usage.requests, now)
	usage.uploaded += dataSize

	return nil
}

// RequestsInWindow reports how many requests a client has made in the last
// minute. Used by tests and diagnostics.
func (rl *RateLimiter) RequestsInWindow(clientID string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	usage, ok := rl.clients[clientID]
	if !ok {
		return 0
	}

	return len(pruneOlderThan(usage.requests, time.Now().Add(-time.Minute)))
}

// evictIdleLocked removes clients with no request in the sliding window and
// a lapsed upload day, so the client map does not grow with every distinct
// IP a long-lived server ever saw. Callers must hold rl.mu.
func (rl *RateLimiter) evictIdleLocked(now time.Time) {
	windowCutoff := now.Add(-time.Minute)
	for id, usage := range rl.clients {
		if len(pruneOlderThan(usage.requests, windowCutoff)) > 0 {
			continue
		}
		if now.Sub(usage.dayStart) < 24*time.Hour && usage.uploaded > 0 {
			continue
		}
		delete(rl.clients, id)
	}
}

// pruneOlderThan drops timestamps before the cutoff, keeping order.
func pruneOlderThan(times []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(times) && times[idx].Before(cutoff) {
		idx++
	}
	return times[idx:]
}

// LimitExceededError reports a crossed rate or quota limit.
type LimitExceededError struct {
	Kind       string
	Limit      int64
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limit exceeded for %s (limit: %d, retry after: %v)", e.Kind, e.Limit, e.RetryAfter)
}
