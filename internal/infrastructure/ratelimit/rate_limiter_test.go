package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowExhaustsBurstPerUser(t *testing.T) {
	rl := NewRateLimiter(60)
	rl.SetPolicy("ping", Policy{Every: time.Hour, Burst: 2})

	ok, _ := rl.Allow("u1", "ping")
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", "ping")
	assert.True(t, ok)

	ok, wait := rl.Allow("u1", "ping")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	ok, _ = rl.Allow("u2", "ping")
	assert.True(t, ok, "buckets are per user")
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(60)
	rl.Allow("u1", ActionSendMessage)
	assert.Len(t, rl.buckets, 1)

	rl.Cleanup(0)
	assert.Empty(t, rl.buckets)
}
