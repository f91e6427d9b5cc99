package arena

import (
	"time"
)

// TicketStatus is the lifecycle of a matchmaking ticket.
type TicketStatus string

const (
	TicketStatusWaiting   TicketStatus = "waiting"
	TicketStatusMatched   TicketStatus = "matched"
	TicketStatusCancelled TicketStatus = "cancelled"
)

const (
	// Redis key prefixes
	TicketKeyPrefix = "arena:ticket:"
	QueueKeyPrefix  = "arena:queue:"

	// Ticket settings
	TicketTTL = 1 * time.Hour
)

// Matchmaking band: every ticket accepts opponents within BaseBand rating
// points, widened by BandStep for each BandStepInterval spent waiting, up to
// MaxBand. Two tickets pair only when the gap fits both bands.
const (
	BaseBand         = 100
	BandStep         = 50
	BandStepInterval = 10 * time.Second
	MaxBand          = 600
)

// Ticket is one user waiting in the matchmaking queue.
type Ticket struct {
	ID         string       `json:"id"`
	UserID     uint         `json:"user_id"`
	Handle     string       `json:"handle"`
	Rating     int          `json:"rating"`
	Mode       string       `json:"mode"`
	Status     TicketStatus `json:"status"`
	MatchID    string       `json:"match_id,omitempty"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
}

// BandFor returns the acceptable rating gap for a ticket that has been
// waiting the given duration.
func BandFor(waited time.Duration) int {
	if waited < 0 {
		waited = 0
	}
	band := BaseBand + BandStep*int(waited/BandStepInterval)
	if band > MaxBand {
		return MaxBand
	}
	return band
}
