package session

import "sync"

// Manager owns the process's current session. Starting an interview replaces
// the session wholesale; there is no partial reset. Access goes through the
// manager rather than a package-level variable so callers hold an explicit
// handle.
type Manager struct {
	mu      sync.RWMutex
	current *Session
}

func NewManager() *Manager {
	return &Manager{}
}

// Start installs a new session, discarding any previous one.
func (m *Manager) Start(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}

// Current returns the active session, or nil when no interview has started.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}
