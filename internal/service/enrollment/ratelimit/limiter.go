package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts verification attempts per key in a fixed window and blocks
// the key for a longer cool-down once the window's quota is exceeded. It is
// in-process and best-effort: its job is damping retry storms, not security
// enforcement.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	attempts int
	window   time.Duration
	blockFor time.Duration

	lastSweep time.Time
	now       func() time.Time
}

type entry struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
}

type Result struct {
	Allowed      bool
	Remaining    int
	ResetAt      time.Time
	BlockedUntil time.Time
	RetryAfter   time.Duration
}

func New(attempts int, window, blockFor time.Duration) *Limiter {
	return &Limiter{
		entries:  make(map[string]*entry),
		attempts: attempts,
		window:   window,
		blockFor: blockFor,
		now:      time.Now,
	}
}

// Check records one attempt for key and reports whether it is allowed.
// Check-and-increment happens under a single lock so two concurrent requests
// can never both observe "under quota" for the last slot.
func (l *Limiter) Check(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok {
		e = &entry{windowStart: now}
		l.entries[key] = e
	}

	if e.blockedUntil.After(now) {
		return Result{
			BlockedUntil: e.blockedUntil,
			RetryAfter:   e.blockedUntil.Sub(now),
		}
	}

	if now.Sub(e.windowStart) >= l.window {
		e.count = 0
		e.windowStart = now
	}

	e.count++
	resetAt := e.windowStart.Add(l.window)
	if e.count > l.attempts {
		e.blockedUntil = now.Add(l.blockFor)
		return Result{
			BlockedUntil: e.blockedUntil,
			RetryAfter:   l.blockFor,
		}
	}

	return Result{
		Allowed:   true,
		Remaining: l.attempts - e.count,
		ResetAt:   resetAt,
	}
}

// sweep drops entries whose window and block have both expired. Entries are
// created lazily, so the map only ever holds recently active keys.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, e := range l.entries {
		if e.blockedUntil.After(now) {
			continue
		}
		if now.Sub(e.windowStart) >= l.window {
			delete(l.entries, key)
		}
	}
}
