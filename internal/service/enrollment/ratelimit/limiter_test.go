package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLimiter(attempts int, window, blockFor time.Duration) (*Limiter, *time.Time) {
	l := New(attempts, window, blockFor)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter(t *testing.T) {
	t.Run("allows attempts up to the quota", func(t *testing.T) {
		l, _ := newTestLimiter(3, time.Minute, 5*time.Minute)

		for i := 0; i < 3; i++ {
			res := l.Check("user-1")
			require.True(t, res.Allowed)
			require.Equal(t, 2-i, res.Remaining)
		}
	})

	t.Run("attempt past the quota blocks the key", func(t *testing.T) {
		l, now := newTestLimiter(3, time.Minute, 5*time.Minute)

		for i := 0; i < 3; i++ {
			require.True(t, l.Check("user-1").Allowed)
		}

		res := l.Check("user-1")
		require.False(t, res.Allowed)
		require.Equal(t, 5*time.Minute, res.RetryAfter)
		require.Equal(t, now.Add(5*time.Minute), res.BlockedUntil)
	})

	t.Run("blocked key stays blocked until the cool-down ends", func(t *testing.T) {
		l, now := newTestLimiter(1, time.Minute, 5*time.Minute)

		require.True(t, l.Check("user-1").Allowed)
		require.False(t, l.Check("user-1").Allowed)

		*now = now.Add(4 * time.Minute)
		res := l.Check("user-1")
		require.False(t, res.Allowed)
		require.Equal(t, time.Minute, res.RetryAfter)

		*now = now.Add(2 * time.Minute)
		require.True(t, l.Check("user-1").Allowed)
	})

	t.Run("counter resets when the window passes", func(t *testing.T) {
		l, now := newTestLimiter(2, time.Minute, 5*time.Minute)

		require.True(t, l.Check("user-1").Allowed)
		require.True(t, l.Check("user-1").Allowed)

		*now = now.Add(time.Minute)
		res := l.Check("user-1")
		require.True(t, res.Allowed)
		require.Equal(t, 1, res.Remaining)
	})

	t.Run("keys are independent", func(t *testing.T) {
		l, _ := newTestLimiter(1, time.Minute, 5*time.Minute)

		require.True(t, l.Check("user-1").Allowed)
		require.False(t, l.Check("user-1").Allowed)
		require.True(t, l.Check("user-2").Allowed)
	})

	t.Run("sweep drops idle entries but keeps blocked ones", func(t *testing.T) {
		l, now := newTestLimiter(1, time.Minute, 5*time.Minute)

		require.True(t, l.Check("idle").Allowed)
		require.True(t, l.Check("blocked").Allowed)
		require.False(t, l.Check("blocked").Allowed)

		*now = now.Add(2 * time.Minute)
		l.Check("other")

		l.mu.Lock()
		_, idleKept := l.entries["idle"]
		_, blockedKept := l.entries["blocked"]
		l.mu.Unlock()
		require.False(t, idleKept)
		require.True(t, blockedKept)
	})
}
