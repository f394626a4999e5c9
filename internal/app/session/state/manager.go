package state

import (
	"sync"
	"time"
)

// Manager manages session lifecycle state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	sessionID string
	phase     Phase
	startedAt *time.Time

	// Persistence bookkeeping
	lastSavedAt  *time.Time
	saveFailures int
}

// New creates a new state manager.
func New(sessionID string) *Manager {
	return &Manager{
		sessionID: sessionID,
		phase:     PhaseWaiting,
	}
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// GetPhase returns the current session phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Activate moves a waiting session to active and records the time.
// It reports false when the session was not waiting.
func (m *Manager) Activate(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseWaiting {
		return false
	}
	m.phase = PhaseActive
	m.startedAt = &now
	return true
}

// Close moves the session to closed. It reports false when already closed.
func (m *Manager) Close() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseClosed {
		return false
	}
	m.phase = PhaseClosed
	return true
}

// IsClosed reports whether the session has been closed.
func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase == PhaseClosed
}

// RecordSave records the outcome of a settings write.
func (m *Manager) RecordSave(now time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.saveFailures++
		return
	}
	m.lastSavedAt = &now
}

// Info returns a copy of the lifecycle state.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Info{
		SessionID:    m.sessionID,
		Phase:        m.phase,
		StartedAt:    m.startedAt,
		LastSavedAt:  m.lastSavedAt,
		SaveFailures: m.saveFailures,
	}
}
