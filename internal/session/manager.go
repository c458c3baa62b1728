package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eloinsight/chessd/internal/apperr"
	"github.com/eloinsight/chessd/internal/chess"
)

// Handle is a reference to a running session actor, safe to share across
// goroutines; the only way to reach the actor's state is through Send.
type Handle struct {
	ID    string
	actor *Actor
}

// Send forwards a command to the underlying actor.
func (h *Handle) Send(cmd Command) { h.actor.Send(cmd) }

// Manager is the process-wide registry of live session actors (spec.md
// §4.6: "a Session exists from create_session until close_session or
// suspend_session").
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Handle

	engineBinaryPath       string
	engineHandshakeTimeout time.Duration
	logger                 *zap.Logger
}

// NewManager constructs an empty session registry.
func NewManager(engineBinaryPath string, handshakeTimeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		sessions:               map[string]*Handle{},
		engineBinaryPath:       engineBinaryPath,
		engineHandshakeTimeout: handshakeTimeout,
		logger:                 logger,
	}
}

// Create starts a new session actor and registers it.
func (m *Manager) Create(fen string, mode chess.GameMode) (*Handle, error) {
	actor, err := NewActor(fen, mode, m.engineBinaryPath, m.engineHandshakeTimeout, m.logger)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	handle := &Handle{ID: id, actor: actor}

	m.mu.Lock()
	m.sessions[id] = handle
	m.mu.Unlock()

	go actor.Run()
	return handle, nil
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.sessions[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "session "+id)
	}
	return h, nil
}

// Close shuts down a session's actor and removes it from the registry.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	h, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return apperr.New(apperr.NotFound, "session "+id)
	}

	reply := make(chan Reply, 1)
	h.Send(Command{Kind: CmdShutdown, Reply: reply})
	<-reply
	return nil
}

// List returns every live session id.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}
