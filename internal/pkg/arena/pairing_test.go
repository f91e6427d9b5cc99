package arena

import (
	"testing"
	"time"
)

func ticket(id string, userID uint, rating int, waited time.Duration, now time.Time) *Ticket {
	return &Ticket{
		ID:         id,
		UserID:     userID,
		Rating:     rating,
		Mode:       "standard",
		Status:     TicketStatusWaiting,
		EnqueuedAt: now.Add(-waited),
	}
}

func TestBandFor(t *testing.T) {
	cases := []struct {
		waited time.Duration
		want   int
	}{
		{0, 100},
		{9 * time.Second, 100},
		{10 * time.Second, 150},
		{35 * time.Second, 250},
		{10 * time.Minute, 600},
	}
	for _, c := range cases {
		if got := BandFor(c.waited); got != c.want {
			t.Fatalf("BandFor(%s) = %d, want %d", c.waited, got, c.want)
		}
	}
}

func TestPairTickets_ClosestRatingWins(t *testing.T) {
	now := time.Now()
	a := ticket("a", 1, 1500, 5*time.Second, now)
	b := ticket("b", 2, 1580, 3*time.Second, now)
	c := ticket("c", 3, 1520, 2*time.Second, now)

	pairs := PairTickets([]*Ticket{a, b, c}, now)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0][0].ID != "a" || pairs[0][1].ID != "c" {
		t.Fatalf("expected a paired with c, got %s vs %s", pairs[0][0].ID, pairs[0][1].ID)
	}
}

func TestPairTickets_BandWidensWithWait(t *testing.T) {
	now := time.Now()
	low := ticket("low", 1, 1200, 0, now)
	high := ticket("high", 2, 1400, 0, now)

	// Gap of 200 exceeds the base band of 100 for both fresh tickets.
	if pairs := PairTickets([]*Ticket{low, high}, now); len(pairs) != 0 {
		t.Fatalf("fresh tickets with a 200 gap must not pair, got %d pairs", len(pairs))
	}

	// After both have waited 20s the band is 200 and they pair.
	later := now.Add(20 * time.Second)
	if pairs := PairTickets([]*Ticket{low, high}, later); len(pairs) != 1 {
		t.Fatalf("expected the pair after the band widened, got %d pairs", len(pairs))
	}
}

func TestPairTickets_BothBandsMustAccept(t *testing.T) {
	now := time.Now()
	veteran := ticket("veteran", 1, 1200, 2*time.Minute, now)
	fresh := ticket("fresh", 2, 1500, 0, now)

	// The veteran's band covers the 300 gap, the fresh ticket's does not.
	if pairs := PairTickets([]*Ticket{veteran, fresh}, now); len(pairs) != 0 {
		t.Fatalf("a pair must fit both bands, got %d pairs", len(pairs))
	}
}

func TestPairTickets_SkipsNonWaitingAndSameUser(t *testing.T) {
	now := time.Now()
	a := ticket("a", 1, 1500, 0, now)
	matched := ticket("m", 2, 1500, 0, now)
	matched.Status = TicketStatusMatched
	dup := ticket("dup", 1, 1510, 0, now)

	if pairs := PairTickets([]*Ticket{a, matched, dup}, now); len(pairs) != 0 {
		t.Fatalf("matched tickets and same-user tickets must not pair, got %d pairs", len(pairs))
	}
}

func TestEloDelta(t *testing.T) {
	if got := EloDelta(1500, 1500); got != 16 {
		t.Fatalf("equal ratings should move 16 points, got %d", got)
	}
	if upset, expected := EloDelta(1200, 1600), EloDelta(1600, 1200); upset <= expected {
		t.Fatalf("an upset win (%d) must pay more than an expected win (%d)", upset, expected)
	}
	if got := EloDelta(2800, 1200); got < 1 {
		t.Fatalf("delta must never drop below 1, got %d", got)
	}
}
