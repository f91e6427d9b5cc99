package ratelimit

import (
	"sync"
	"time"
)

// MemoryLimiter is a sliding-window limiter over per-identifier timestamp
// slices. Timestamps older than the window are pruned on every check; a
// janitor drops identifiers that went fully idle so the map cannot grow
// without bound.
type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string][]time.Time
	now     func() time.Time
	stopCh  chan struct{}
}

func NewMemoryLimiter(window time.Duration, max int) *MemoryLimiter {
	l := &MemoryLimiter{
		window:  window,
		max:     max,
		entries: make(map[string][]time.Time),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go l.janitor(window)
	return l
}

func (l *MemoryLimiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.entries[identifier][:0]
	for _, ts := range l.entries[identifier] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		l.entries[identifier] = kept
		return false
	}

	l.entries[identifier] = append(kept, now)
	return true
}

// Stop terminates the janitor goroutine.
func (l *MemoryLimiter) Stop() {
	close(l.stopCh)
}

func (l *MemoryLimiter) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.mu.Lock()
			cutoff := l.now().Add(-l.window)
			for id, stamps := range l.entries {
				live := false
				for _, ts := range stamps {
					if ts.After(cutoff) {
						live = true
						break
					}
				}
				if !live {
					delete(l.entries, id)
				}
			}
			l.mu.Unlock()
		}
	}
}
