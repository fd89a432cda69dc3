package store

import (
	"context"
	"sync"

	"github.com/agentswap/backend/internal/models"
)

// MemoryStore keeps swap requests in a process-wide map. Entries live for
// the lifetime of the process; there is no expiry for pending requests.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*models.SwapRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]*models.SwapRequest),
	}
}

func (m *MemoryStore) Create(_ context.Context, req *models.SwapRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.requests[req.ID]; exists {
		return ErrDuplicateID
	}

	stored := *req
	m.requests[req.ID] = &stored
	return nil
}

// Get returns a snapshot copy so callers can never mutate the stored entry.
func (m *MemoryStore) Get(_ context.Context, id string) (*models.SwapRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}

	snapshot := *req
	return &snapshot, nil
}

// MarkCompleted flips status PENDING -> COMPLETED under the lock. Only the
// first caller for a given id succeeds.
func (m *MemoryStore) MarkCompleted(_ context.Context, id string) (*models.SwapRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}

	if req.Status != models.SwapStatusPending {
		return nil, ErrAlreadyCompleted
	}

	req.Status = models.SwapStatusCompleted
	snapshot := *req
	return &snapshot, nil
}
