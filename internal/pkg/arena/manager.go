package arena

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/leaderboard"
)

// Manager manages the global matchmaking queue and background tasks
type Manager struct {
	queue              *Queue
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// Configure installs the match store before the first GetManager call.
var configuredStore MatchStore

// Configure sets the store the global manager will use. Must be called once
// during startup, before GetManager.
func Configure(store MatchStore) {
	configuredStore = store
}

// GetManager returns the global matchmaking manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		modes := []string{models.ArenaModeBlitz, models.ArenaModeStandard}
		globalManager = &Manager{
			queue:  NewQueue(configuredStore, modes, 2*time.Second),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed matchmaking queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the matchmaking queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Arena Manager] Starting matchmaking and background tasks")

	m.queue.Start()

	// Start counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[Arena Manager] Started successfully")
}

// Stop stops the matchmaking queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Arena Manager] Stopping matchmaking and background tasks...")

	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	close(m.stopCh)
	m.running = false

	m.wg.Wait()
	m.queue.Stop()

	log.Info("[Arena Manager] Stopped successfully")
}

// counterFlushWorker periodically flushes win/loss counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Arena Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := leaderboard.FlushAll(); err != nil {
				log.Errorf("[Arena Manager] Counter flush error: %v", err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
