package arena

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/cache"
)

// MatchStore creates the persistent match record once two tickets pair up.
type MatchStore interface {
	CreateMatch(t1, t2 *Ticket) (matchID string, err error)
}

// Queue manages the matchmaking queues using Redis. Tickets live as JSON
// blobs under TicketKeyPrefix; each mode has a sorted set of ticket IDs
// scored by rating so the pairing worker can read one mode at a time.
type Queue struct {
	client   *redis.Client
	store    MatchStore
	modes    []string
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewQueue creates a new matchmaking queue over the shared Redis client.
func NewQueue(store MatchStore, modes []string, interval time.Duration) *Queue {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Queue{
		client:   cache.GetClient(),
		store:    store,
		modes:    modes,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the pairing worker.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.stopCh = make(chan struct{})
	q.running = true
	log.Infof("[Arena] Starting pairing worker (interval=%s, modes=%v)", q.interval, q.modes)

	q.wg.Add(1)
	go q.pairingWorker()
}

// Stop stops the pairing worker.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Info("[Arena] Stopping pairing worker...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[Arena] Pairing worker stopped")
}

// pairingWorker periodically scans every mode queue and pairs tickets.
func (q *Queue) pairingWorker() {
	defer q.wg.Done()
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Info("[Arena] Pairing worker stopping")
			return
		case <-ticker.C:
			for _, mode := range q.modes {
				if err := q.pairMode(ctx, mode); err != nil {
					log.Errorf("[Arena] Pairing error for mode %s: %v", mode, err)
				}
			}
		}
	}
}

// pairMode loads every waiting ticket of one mode and pairs what it can.
func (q *Queue) pairMode(ctx context.Context, mode string) error {
	queueKey := QueueKeyPrefix + mode
	ids, err := q.client.ZRange(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read queue %s: %w", mode, err)
	}
	if len(ids) < 2 {
		return nil
	}

	tickets := make([]*Ticket, 0, len(ids))
	for _, id := range ids {
		ticket, err := q.GetTicket(ctx, id)
		if err != nil {
			// Ticket data expired or vanished; drop the stray queue entry
			if err != redis.Nil {
				log.Errorf("[Arena] Failed to load ticket %s: %v", id, err)
			}
			_ = q.client.ZRem(ctx, queueKey, id).Err()
			continue
		}
		tickets = append(tickets, ticket)
	}

	for _, pair := range PairTickets(tickets, time.Now()) {
		if err := q.finalizePair(ctx, mode, pair[0], pair[1]); err != nil {
			log.Errorf("[Arena] Failed to finalize pair (%s, %s): %v", pair[0].ID, pair[1].ID, err)
		}
	}
	return nil
}

// finalizePair creates the match record, marks both tickets matched, and
// removes them from the queue.
func (q *Queue) finalizePair(ctx context.Context, mode string, t1, t2 *Ticket) error {
	matchID, err := q.store.CreateMatch(t1, t2)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	t1.Status = TicketStatusMatched
	t1.MatchID = matchID
	t2.Status = TicketStatusMatched
	t2.MatchID = matchID

	pipe := q.client.Pipeline()
	for _, t := range []*Ticket{t1, t2} {
		data, merr := json.Marshal(t)
		if merr != nil {
			return fmt.Errorf("failed to marshal ticket %s: %w", t.ID, merr)
		}
		pipe.Set(ctx, TicketKeyPrefix+t.ID, data, TicketTTL)
		pipe.ZRem(ctx, QueueKeyPrefix+mode, t.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store matched tickets: %w", err)
	}

	log.Infof("[Arena] Matched %s (%d) vs %s (%d) in mode %s -> match %s",
		t1.Handle, t1.Rating, t2.Handle, t2.Rating, mode, matchID)
	return nil
}

// Enqueue adds a user to the matchmaking queue for a mode.
func (q *Queue) Enqueue(ctx context.Context, userID uint, handle string, rating int, mode string) (*Ticket, error) {
	ticket := &Ticket{
		ID:         uuid.New().String(),
		UserID:     userID,
		Handle:     handle,
		Rating:     rating,
		Mode:       mode,
		Status:     TicketStatusWaiting,
		EnqueuedAt: time.Now(),
	}

	data, err := json.Marshal(ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, TicketKeyPrefix+ticket.ID, data, TicketTTL)
	pipe.ZAdd(ctx, QueueKeyPrefix+mode, redis.Z{Score: float64(rating), Member: ticket.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue ticket: %w", err)
	}

	log.Infof("[Arena] Enqueued ticket %s (user=%d, rating=%d, mode=%s)", ticket.ID, userID, rating, mode)
	return ticket, nil
}

// GetTicket retrieves a ticket by ID.
func (q *Queue) GetTicket(ctx context.Context, ticketID string) (*Ticket, error) {
	data, err := q.client.Get(ctx, TicketKeyPrefix+ticketID).Result()
	if err != nil {
		return nil, err
	}

	var ticket Ticket
	if err := json.Unmarshal([]byte(data), &ticket); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket %s: %w", ticketID, err)
	}
	return &ticket, nil
}

// Leave cancels a waiting ticket and removes it from its queue.
func (q *Queue) Leave(ctx context.Context, ticketID string) error {
	ticket, err := q.GetTicket(ctx, ticketID)
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}
	if ticket.Status != TicketStatusWaiting {
		return fmt.Errorf("ticket %s is not waiting (status=%s)", ticketID, ticket.Status)
	}

	ticket.Status = TicketStatusCancelled
	data, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket %s: %w", ticketID, err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, TicketKeyPrefix+ticketID, data, TicketTTL)
	pipe.ZRem(ctx, QueueKeyPrefix+ticket.Mode, ticketID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cancel ticket: %w", err)
	}

	log.Infof("[Arena] Cancelled ticket %s (user=%d)", ticketID, ticket.UserID)
	return nil
}

// QueueSize returns the number of waiting tickets for a mode.
func (q *Queue) QueueSize(ctx context.Context, mode string) (int64, error) {
	return q.client.ZCard(ctx, QueueKeyPrefix+mode).Result()
}
