package arena

import (
	"sort"
	"time"
)

// PairTickets pairs waiting tickets of one mode. Tickets are considered
// oldest-first; each picks the compatible opponent with the smallest rating
// gap. A pair is compatible when the gap fits inside both tickets' widening
// bands, so a fresh high-rated entrant cannot grab a long-waiting low-rated
// one before that player's own band has opened up.
func PairTickets(tickets []*Ticket, now time.Time) [][2]*Ticket {
	waiting := make([]*Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == TicketStatusWaiting {
			waiting = append(waiting, t)
		}
	}
	sort.SliceStable(waiting, func(i, j int) bool {
		return waiting[i].EnqueuedAt.Before(waiting[j].EnqueuedAt)
	})

	used := make(map[string]bool, len(waiting))
	var pairs [][2]*Ticket

	for i, t := range waiting {
		if used[t.ID] {
			continue
		}
		bandT := BandFor(now.Sub(t.EnqueuedAt))

		var best *Ticket
		bestGap := 0
		for j := i + 1; j < len(waiting); j++ {
			o := waiting[j]
			if used[o.ID] || o.UserID == t.UserID {
				continue
			}
			gap := t.Rating - o.Rating
			if gap < 0 {
				gap = -gap
			}
			if gap > bandT || gap > BandFor(now.Sub(o.EnqueuedAt)) {
				continue
			}
			if best == nil || gap < bestGap {
				best = o
				bestGap = gap
			}
		}

		if best != nil {
			used[t.ID] = true
			used[best.ID] = true
			pairs = append(pairs, [2]*Ticket{t, best})
		}
	}
	return pairs
}
