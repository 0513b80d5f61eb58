package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mars-rovers/game/service"
)

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrInvalidRun       = errors.New("invalid run")
)

// maxIDAttempts bounds how often Create retries a generated ID that is
// already taken.
const maxIDAttempts = 16

// Manager keeps finished runs in memory
type Manager struct {
	runs map[string]*service.Run
	mu   sync.RWMutex
}

// NewManager creates a new run registry
func NewManager() *Manager {
	return &Manager{
		runs: make(map[string]*service.Run),
	}
}

// Create stores run under id, or under a generated 4-character ID when id is
// empty. IDs are case-insensitive.
func (m *Manager) Create(id string, run *service.Run) (*service.Run, error) {
	if run == nil || run.Simulation == nil || run.Mission == nil {
		return nil, ErrInvalidRun
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		for i := 0; i < maxIDAttempts; i++ {
			candidate := generateRunID()
			if !m.exists(candidate) {
				id = candidate
				break
			}
		}
		if id == "" {
			return nil, ErrRunAlreadyExists
		}
	} else if m.exists(id) {
		return nil, ErrRunAlreadyExists
	}

	now := time.Now()
	run.ID = id
	run.CreatedAt = now
	run.LastAccessedAt = now

	m.runs[strings.ToLower(id)] = run
	return run, nil
}

// Get retrieves a run by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, exists := m.runs[strings.ToLower(id)]
	if !exists {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// List returns all stored runs
func (m *Manager) List() []*service.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run)
	}
	return result
}

// Delete removes a run
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	if _, exists := m.runs[lowerID]; !exists {
		return ErrRunNotFound
	}
	delete(m.runs, lowerID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a run
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, exists := m.runs[strings.ToLower(id)]
	if !exists {
		return ErrRunNotFound
	}
	run.LastAccessedAt = time.Now()
	return nil
}

// CleanupExpiredRuns removes runs that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredRuns(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, run := range m.runs {
		if run.LastAccessedAt.Before(cutoff) {
			delete(m.runs, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of stored runs
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

func (m *Manager) exists(id string) bool {
	_, exists := m.runs[strings.ToLower(id)]
	return exists
}

// generateRunID generates a random 4-character run ID
func generateRunID() string {
	// 2 random bytes (4 hex characters)
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
