package transporter

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps profiles in a map. It is the reference store; the
// Postgres repository implements the same surface for durable deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

// GetByID fetches a profile.
func (s *MemoryStore) GetByID(_ context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

// Save upserts a profile.
func (s *MemoryStore) Save(_ context.Context, p Profile) error {
	if p.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	s.profiles[p.ID] = p
	s.mu.Unlock()
	return nil
}

// ListActive returns active profiles ordered by id for determinism.
func (s *MemoryStore) ListActive(_ context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
