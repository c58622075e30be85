package reply

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newClockedLimiter(cooldown time.Duration) (*RateLimiter, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(cooldown)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiterAllowsFirstContact(t *testing.T) {
	l, _ := newClockedLimiter(time.Hour)
	assert.True(t, l.Allow("pera@example.com"))
}

func TestLimiterBlocksWithinCooldown(t *testing.T) {
	l, now := newClockedLimiter(time.Hour)

	l.Record("pera@example.com")
	*now = now.Add(59 * time.Minute)
	assert.False(t, l.Allow("pera@example.com"))

	*now = now.Add(time.Minute)
	assert.True(t, l.Allow("pera@example.com"))
}

func TestLimiterIsPerSender(t *testing.T) {
	l, _ := newClockedLimiter(time.Hour)

	l.Record("pera@example.com")
	assert.False(t, l.Allow("pera@example.com"))
	assert.True(t, l.Allow("mika@example.com"))
}

func TestLimiterSweepEvictsIdleSenders(t *testing.T) {
	l, now := newClockedLimiter(time.Hour)

	l.Record("old@example.com")
	*now = now.Add(25 * time.Hour)
	l.Record("fresh@example.com")

	assert.Equal(t, 1, l.Sweep(24*time.Hour))
	assert.True(t, l.Allow("old@example.com"))
	assert.False(t, l.Allow("fresh@example.com"))
}
