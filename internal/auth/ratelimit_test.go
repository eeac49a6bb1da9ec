package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newClockedLimiter(t *testing.T, now *time.Time) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(DefaultRateLimitConfig())
	rl.now = func() time.Time { return *now }
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiter(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("locks after max failures and releases after lockout", func(t *testing.T) {
		now := start
		rl := newClockedLimiter(t, &now)

		for i := 0; i < 4; i++ {
			locked, _ := rl.RecordFailure("a@b.com")
			assert.False(t, locked)
		}
		locked, lockout := rl.RecordFailure("A@B.com")
		assert.True(t, locked)
		assert.Equal(t, 30*time.Minute, lockout)

		allowed, retry := rl.Allow("a@b.com")
		assert.False(t, allowed)
		assert.Equal(t, 30*time.Minute, retry)

		now = start.Add(31 * time.Minute)
		allowed, _ = rl.Allow("a@b.com")
		assert.True(t, allowed)

		locked, _ = rl.RecordFailure("a@b.com")
		assert.False(t, locked, "counter restarts once the lockout has passed")
	})

	t.Run("failures outside the window do not accumulate", func(t *testing.T) {
		now := start
		rl := newClockedLimiter(t, &now)

		for i := 0; i < 4; i++ {
			rl.RecordFailure("c@d.com")
		}
		now = start.Add(16 * time.Minute)
		locked, _ := rl.RecordFailure("c@d.com")
		assert.False(t, locked)
	})

	t.Run("success clears the record", func(t *testing.T) {
		now := start
		rl := newClockedLimiter(t, &now)

		for i := 0; i < 4; i++ {
			rl.RecordFailure("e@f.com")
		}
		rl.RecordSuccess("e@f.com")
		locked, _ := rl.RecordFailure("e@f.com")
		assert.False(t, locked)
	})

	t.Run("cleanup drops expired records", func(t *testing.T) {
		now := start
		rl := newClockedLimiter(t, &now)
		rl.RecordFailure("g@h.com")

		now = start.Add(time.Hour)
		rl.cleanup()

		rl.mu.RLock()
		defer rl.mu.RUnlock()
		assert.Empty(t, rl.attempts)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{})
		rl.Stop()
		rl.Stop()
	})
}
