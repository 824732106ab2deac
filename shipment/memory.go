package shipment

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	// ErrNotFound signals the requested shipment does not exist.
	ErrNotFound = errors.New("shipment: not found")
	// ErrMissingID signals a shipment without an identity.
	ErrMissingID = errors.New("shipment: missing shipment id")
)

// MemoryStore keeps shipments in a map. Reference store; the Postgres
// repository implements the same surface.
type MemoryStore struct {
	mu        sync.RWMutex
	shipments map[string]Shipment
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shipments: make(map[string]Shipment)}
}

// Get fetches a shipment.
func (s *MemoryStore) Get(_ context.Context, id string) (Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shipments[id]
	if !ok {
		return Shipment{}, ErrNotFound
	}
	return sh, nil
}

// Save upserts a shipment.
func (s *MemoryStore) Save(_ context.Context, sh Shipment) error {
	if sh.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	s.shipments[sh.ID] = sh
	s.mu.Unlock()
	return nil
}

// ListByStatus returns shipments in the given status ordered by id.
func (s *MemoryStore) ListByStatus(_ context.Context, status Status) ([]Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Shipment, 0)
	for _, sh := range s.shipments {
		if sh.Status == status {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
