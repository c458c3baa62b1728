package review

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eloinsight/chessd/internal/apperr"
)

// Manager accepts enqueue requests, dedupes them against an
// already-enqueued set, and dispatches jobs to the shared worker pool
// queue (C8, spec.md §4.7).
type Manager struct {
	games FinishedGameRepository
	jobs  chan ReviewJob

	mu        sync.RWMutex
	enqueued  map[string]bool

	logger *zap.Logger
}

// NewManager constructs a Manager backed by games and a bounded job queue
// of the given capacity, shared by every worker in the pool.
func NewManager(games FinishedGameRepository, queueCapacity int, logger *zap.Logger) *Manager {
	return &Manager{
		games:    games,
		jobs:     make(chan ReviewJob, queueCapacity),
		enqueued: map[string]bool{},
		logger:   logger,
	}
}

// Jobs returns the shared job channel every worker receives from.
func (m *Manager) Jobs() <-chan ReviewJob { return m.jobs }

// Enqueue submits gameID for review. Re-enqueuing an already-queued game is
// idempotent (spec.md §4.7 step 2).
func (m *Manager) Enqueue(gameID string) error {
	m.mu.RLock()
	already := m.enqueued[gameID]
	m.mu.RUnlock()
	if already {
		return nil
	}

	game, err := m.games.LoadByID(gameID)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "game "+gameID, err)
	}

	m.mu.Lock()
	if m.enqueued[gameID] {
		m.mu.Unlock()
		return nil
	}
	m.enqueued[gameID] = true
	m.mu.Unlock()

	m.jobs <- ReviewJob{GameID: gameID, GameData: *game}
	m.logger.Info("review enqueued", zap.String("game_id", gameID))
	return nil
}

// MarkDone removes gameID from the already-enqueued set once its worker
// finishes (successfully or not), allowing a future re-enqueue to resume a
// failed job.
func (m *Manager) MarkDone(gameID string) {
	m.mu.Lock()
	delete(m.enqueued, gameID)
	m.mu.Unlock()
}
