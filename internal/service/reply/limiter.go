package reply

import (
	"sync"
	"time"
)

// RateLimiter enforces a per-sender cooldown between replies.
type RateLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

func NewRateLimiter(cooldown time.Duration) *RateLimiter {
	return &RateLimiter{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether a reply to the sender is currently permitted.
func (l *RateLimiter) Allow(sender string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	at, ok := l.last[sender]
	return !ok || l.now().Sub(at) >= l.cooldown
}

// Record marks that a reply to the sender was attempted now.
func (l *RateLimiter) Record(sender string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[sender] = l.now()
}

// Sweep drops senders idle for at least maxIdle and returns how many were
// evicted.
func (l *RateLimiter) Sweep(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	evicted := 0
	cutoff := l.now().Add(-maxIdle)
	for sender, at := range l.last {
		if !at.After(cutoff) {
			delete(l.last, sender)
			evicted++
		}
	}
	return evicted
}
