package outcomes

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps draft outcome sets being edited, keyed by draft ID.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]*Manager
	logger *zap.Logger
}

// NewStore creates an empty draft store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		drafts: make(map[string]*Manager),
		logger: logger,
	}
}

// Create starts a draft. An empty initial set starts from the Yes/No default.
func (s *Store) Create(initial []Outcome) (string, *Manager) {
	var m *Manager
	if len(initial) == 0 {
		m = NewBinary(s.logger)
	} else {
		m = NewManager(initial, s.logger)
	}

	id := uuid.New().String()

	s.mu.Lock()
	s.drafts[id] = m
	s.mu.Unlock()

	s.logger.Debug("outcome-draft-created", zap.String("draft-id", id), zap.Int("outcomes", len(m.Outcomes())))
	return id, m
}

// Get returns the draft with id.
func (s *Store) Get(id string) (*Manager, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.drafts[id]
	return m, ok
}

// Delete discards a draft. It reports whether the draft existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.drafts[id]
	delete(s.drafts, id)
	return ok
}

// Len returns the number of drafts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}
