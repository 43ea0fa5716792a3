package engine

import "time"

// Lock is the turn lock: a single flag, not a queue. A rejected acquire is
// simply dropped. It is owned by the engine's loop and is not safe for
// concurrent use.
type Lock struct {
	held  bool
	since time.Time
}

// TryAcquire takes the lock if it is free and reports whether it did.
func (l *Lock) TryAcquire(now time.Time) bool {
	if l.held {
		return false
	}
	l.held = true
	l.since = now
	return true
}

// Release frees the lock. Releasing a free lock is a no-op.
func (l *Lock) Release() {
	l.held = false
	l.since = time.Time{}
}

// Held reports whether a turn holds the lock.
func (l *Lock) Held() bool {
	return l.held
}

// HeldFor returns how long the lock has been held at now, or 0 if free.
func (l *Lock) HeldFor(now time.Time) time.Duration {
	if !l.held {
		return 0
	}
	return now.Sub(l.since)
}
