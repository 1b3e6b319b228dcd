// Package outcomes manages the editable list of market outcomes and their
// probabilities used when creating a market.
package outcomes

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Outcome is one possible resolution of a market. Identity is positional.
type Outcome struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// Manager owns an ordered outcome set and the uniform distribution flag.
// Every operation is a single critical section, so readers never observe a
// binary set whose probabilities do not add up to 100.
type Manager struct {
	mu       sync.RWMutex
	outcomes []Outcome
	uniform  bool
	logger   *zap.Logger
}

// NewManager creates a manager seeded with a copy of initial.
func NewManager(initial []Outcome, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		outcomes: append([]Outcome(nil), initial...),
		logger:   logger,
	}
}

// NewBinary creates the default Yes/No set at 50/50.
func NewBinary(logger *zap.Logger) *Manager {
	return NewManager([]Outcome{
		{Name: "Yes", Probability: 50},
		{Name: "No", Probability: 50},
	}, logger)
}

// Outcomes returns a copy of the current set.
func (m *Manager) Outcomes() []Outcome {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Outcome(nil), m.outcomes...)
}

// Uniform reports whether uniform mode is active.
func (m *Manager) Uniform() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uniform
}

// Total returns the sum of all probabilities. For three or more outcomes this is
// informational only and may differ from 100.
func (m *Manager) Total() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return total(m.outcomes)
}

// SetProbability sets the probability of the outcome at index.
// Values outside [0,100], unknown indexes and edits while uniform mode is active
// are ignored and reported as false. A binary set keeps its complement at 100-value.
func (m *Manager) SetProbability(index int, value float64) bool {
	if value < 0 || value > 100 {
		m.logger.Debug("probability-out-of-range",
			zap.Int("index", index),
			zap.Float64("value", value))
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uniform || index < 0 || index >= len(m.outcomes) {
		return false
	}

	if len(m.outcomes) == 2 {
		m.outcomes[index].Probability = value
		m.outcomes[1-index].Probability = 100 - value
		return true
	}

	m.outcomes[index].Probability = value
	return true
}

// SetName renames the outcome at index.
func (m *Manager) SetName(index int, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.outcomes) {
		return false
	}
	m.outcomes[index].Name = name
	return true
}

// AddOutcome appends an outcome. In uniform mode the supplied probability is
// ignored and the whole set is redistributed.
func (m *Manager) AddOutcome(name string, probability float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes = append(m.outcomes, Outcome{
		Name:        strings.TrimSpace(name),
		Probability: probability,
	})
	if m.uniform {
		distribute(m.outcomes)
	}

	m.logger.Debug("outcome-added",
		zap.Int("count", len(m.outcomes)),
		zap.Bool("uniform", m.uniform))
}

// RemoveOutcome removes the outcome at index, redistributing in uniform mode.
func (m *Manager) RemoveOutcome(index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.outcomes) {
		return false
	}

	next := make([]Outcome, 0, len(m.outcomes)-1)
	next = append(next, m.outcomes[:index]...)
	next = append(next, m.outcomes[index+1:]...)
	m.outcomes = next

	if m.uniform {
		distribute(m.outcomes)
	}
	return true
}

// ToggleUniform flips uniform mode and returns the new state. Switching it on
// redistributes the set; switching it off keeps the current values.
func (m *Manager) ToggleUniform() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.uniform = !m.uniform
	if m.uniform {
		distribute(m.outcomes)
	}

	m.logger.Debug("uniform-toggled", zap.Bool("uniform", m.uniform))
	return m.uniform
}

// SuggestMax returns the probability a new outcome needs for the current set to total 100.
func (m *Manager) SuggestMax() float64 {
	return SuggestMax(m.Outcomes())
}

// SuggestMax returns 100 minus the sum of the probabilities in set.
func SuggestMax(set []Outcome) float64 {
	return 100 - total(set)
}

// distribute sets every probability to 100/n. No remainder correction is applied.
func distribute(set []Outcome) {
	if len(set) == 0 {
		return
	}
	p := 100 / float64(len(set))
	for i := range set {
		set[i].Probability = p
	}
}

func total(set []Outcome) float64 {
	sum := 0.0
	for _, o := range set {
		sum += o.Probability
	}
	return sum
}
