package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterRequestsPerMinute(t *testing.T) {
	limiter := NewRateLimiter(3, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow("client-a", 0), "request %d", i)
	}

	err := limiter.Allow("client-a", 0)
	require.Error(t, err)

	var limitErr *LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "requests_per_minute", limitErr.Kind)
	assert.Equal(t, int64(3), limitErr.Limit)
	assert.Positive(t, limitErr.RetryAfter)

	// Other clients are tracked independently.
	assert.NoError(t, limiter.Allow("client-b", 0))
	assert.Equal(t, 3, limiter.RequestsInWindow("client-a"))
	assert.Equal(t, 1, limiter.RequestsInWindow("client-b"))
}

func TestRateLimiterUploadQuota(t *testing.T) {
	limiter := NewRateLimiter(0, 1000)

	require.NoError(t, limiter.Allow("client-a", 600))
	require.NoError(t, limiter.Allow("client-a", 400))

	err := limiter.Allow("client-a", 1)
	require.Error(t, err)

	var limitErr *LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "upload_per_day", limitErr.Kind)
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(10, 1000)
	now := time.Now()

	// A client whose window lapsed and whose day quota is untouched.
	limiter.clients["stale"] = &clientUsage{
		requests: []time.Time{now.Add(-2 * time.Minute)},
		dayStart: now.Add(-2 * time.Minute),
	}
	// A client with an empty window but upload quota still in effect today.
	limiter.clients["uploading"] = &clientUsage{
		requests: []time.Time{now.Add(-5 * time.Minute)},
		uploaded: 500,
		dayStart: now.Add(-time.Hour),
	}
	// A client whose upload day has lapsed entirely.
	limiter.clients["yesterday"] = &clientUsage{
		uploaded: 900,
		dayStart: now.Add(-25 * time.Hour),
	}

	require.NoError(t, limiter.Allow("active", 0))

	assert.NotContains(t, limiter.clients, "stale")
	assert.NotContains(t, limiter.clients, "yesterday")
	assert.Contains(t, limiter.clients, "uploading")
	assert.Contains(t, limiter.clients, "active")
}

func TestRateLimiterZeroLimitsDisabled(t *testing.T) {
	limiter := NewRateLimiter(0, 0)

	for n := 0; n < 100; n++ {
		require.NoError(t, limiter.Allow("client-a", 1<<20))
	}
}
