package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(window time.Duration, max int) (*MemoryLimiter, *time.Time) {
	l := &MemoryLimiter{
		window:  window,
		max:     max,
		entries: make(map[string][]time.Time),
		stopCh:  make(chan struct{}),
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiter_RejectsOverLimit(t *testing.T) {
	l, _ := newTestLimiter(60*time.Second, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatalf("request over the limit should be rejected")
	}
	// Other identifiers are unaffected.
	if !l.Allow("5.6.7.8") {
		t.Fatalf("different identifier should be allowed")
	}
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	l, now := newTestLimiter(60*time.Second, 2)

	if !l.Allow("ip") || !l.Allow("ip") {
		t.Fatalf("first two requests should be allowed")
	}
	if l.Allow("ip") {
		t.Fatalf("third request inside window should be rejected")
	}

	*now = now.Add(61 * time.Second)
	if !l.Allow("ip") {
		t.Fatalf("request after window elapsed should be allowed again")
	}
}

// Rejected requests must not consume window slots.
func TestMemoryLimiter_RejectionNotCounted(t *testing.T) {
	l, now := newTestLimiter(60*time.Second, 1)

	if !l.Allow("ip") {
		t.Fatalf("first request should be allowed")
	}
	for i := 0; i < 10; i++ {
		if l.Allow("ip") {
			t.Fatalf("requests over limit should be rejected")
		}
	}

	*now = now.Add(61 * time.Second)
	if !l.Allow("ip") {
		t.Fatalf("rejections must not extend the window")
	}
}
