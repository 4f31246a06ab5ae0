package auth

import (
	"sync"
	"time"
)

// LockoutConfig holds brute-force lockout behavior
type LockoutConfig struct {
	MaxAttempts     int           // failed attempts before lockout
	LockoutDuration time.Duration // how long a locked email stays locked
	Window          time.Duration // idle time after which stale entries are swept
}

// DefaultLockoutConfig returns the default policy: 5 attempts, 5 minute lock.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxAttempts:     5,
		LockoutDuration: 5 * time.Minute,
		Window:          15 * time.Minute,
	}
}

type lockoutEntry struct {
	count       int
	lockedUntil time.Time
	lastFailure time.Time
}

// LockoutTracker tracks failed login attempts per email. State is in-memory
// and intentionally best-effort: a process restart forgets all attempts and
// active lockouts. Mutation is atomic per key behind a single mutex.
type LockoutTracker struct {
	mu      sync.Mutex
	entries map[string]*lockoutEntry
	config  LockoutConfig
	now     func() time.Time
}

// NewLockoutTracker creates a tracker with the given policy
func NewLockoutTracker(config LockoutConfig) *LockoutTracker {
	return &LockoutTracker{
		entries: make(map[string]*lockoutEntry),
		config:  config,
		now:     time.Now,
	}
}

// Remaining reports whether the email is currently locked out and, if so,
// how long until the lockout expires. An expired lockout resets the counter.
func (t *LockoutTracker) Remaining(email string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[email]
	if !ok || entry.lockedUntil.IsZero() {
		return 0, false
	}

	now := t.now()
	if now.Before(entry.lockedUntil) {
		return entry.lockedUntil.Sub(now), true
	}

	// Lockout expired: the next attempt starts with a clean slate
	delete(t.entries, email)
	return 0, false
}

// RecordFailure registers a failed attempt. It returns the number of attempts
// remaining before lockout, and whether this failure triggered a lockout.
func (t *LockoutTracker) RecordFailure(email string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[email]
	if !ok {
		entry = &lockoutEntry{}
		t.entries[email] = entry
	}

	entry.count++
	entry.lastFailure = t.now()

	remaining := t.config.MaxAttempts - entry.count
	if remaining <= 0 {
		entry.lockedUntil = t.now().Add(t.config.LockoutDuration)
		return 0, true
	}
	return remaining, false
}

// Reset clears tracked failures for the email (called on successful login)
func (t *LockoutTracker) Reset(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, email)
}

// Sweep removes entries whose lockout expired and whose last failure is
// older than the tracking window. Returns the number of removed entries.
func (t *LockoutTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for email, entry := range t.entries {
		lockExpired := entry.lockedUntil.IsZero() || now.After(entry.lockedUntil)
		stale := now.Sub(entry.lastFailure) > t.config.Window
		if lockExpired && stale {
			delete(t.entries, email)
			removed++
		}
	}
	return removed
}
