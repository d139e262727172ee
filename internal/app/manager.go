package app

import (
	"sync"

	"github.com/rs/zerolog"

	"hotel_frontdesk/internal/domain"
)

// SessionManager hands out one Session per desk terminal, keyed by the
// terminal id the API layer extracts from requests.
type SessionManager struct {
	backend domain.Backend
	catalog *CatalogService
	log     zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(b domain.Backend, c *CatalogService, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		backend:  b,
		catalog:  c,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

func (m *SessionManager) Get(terminalID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[terminalID]; ok {
		return s
	}
	s := NewSession(m.backend, m.catalog, m.log.With().Str("terminal", terminalID).Logger())
	m.sessions[terminalID] = s
	return s
}

// AnyInForm reports whether any terminal is inside the ordering flow. The
// periodic catalog refresh uses this to avoid clobbering an in-progress
// draft's visual context.
func (m *SessionManager) AnyInForm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.InForm() {
			return true
		}
	}
	return false
}
