package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionUpload      = "upload"
)

// Policy is a sustained rate plus burst for one action.
type Policy struct {
	Every time.Duration
	Burst int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	policies map[string]Policy
	fallback Policy

	mutex   sync.Mutex
	buckets map[string]*entry
}

// NewRateLimiter builds the limiter. sendPerMinute tunes message sends; the
// other actions use fixed policies.
func NewRateLimiter(sendPerMinute int) *RateLimiter {
	if sendPerMinute <= 0 {
		sendPerMinute = 60
	}
	return &RateLimiter{
		policies: map[string]Policy{
			ActionSendMessage: {Every: time.Minute / time.Duration(sendPerMinute), Burst: sendPerMinute / 4 + 1},
			ActionCreateChat:  {Every: 12 * time.Second, Burst: 5},
			ActionUpload:      {Every: 2 * time.Second, Burst: 10},
		},
		fallback: Policy{Every: 3 * time.Second, Burst: 20},
		buckets:  make(map[string]*entry),
	}
}

// SetPolicy overrides the policy for an action. Existing buckets keep theirs.
func (rl *RateLimiter) SetPolicy(action string, p Policy) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.policies[action] = p
}

func (rl *RateLimiter) bucket(userID, action string) *rate.Limiter {
	key := userID + ":" + action

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	e, ok := rl.buckets[key]
	if !ok {
		p, found := rl.policies[action]
		if !found {
			p = rl.fallback
		}
		e = &entry{limiter: rate.NewLimiter(rate.Every(p.Every), p.Burst)}
		rl.buckets[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// Allow consumes a token if one is available. When it is not, the returned
// duration is how long until the next token.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	limiter := rl.bucket(userID, action)

	r := limiter.Reserve()
	if !r.OK() {
		return false, 0
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return false, delay
	}
	return true, 0
}

// Cleanup removes buckets idle for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := time.Now().Add(-idle)
	for key, e := range rl.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine runs Cleanup every 30 minutes until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
