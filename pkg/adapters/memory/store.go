package memory

import (
	"context"
	"sync"

	"github.com/aretw0/warden/pkg/domain"
)

// Store implements ports.SlotStore in memory.
// Safe for concurrent use. Several session managers sharing one Store behave like
// browser tabs sharing one origin's storage.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save copies data into the slot.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	copied := append([]byte(nil), data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load returns a copy of the slot so callers can't mutate stored bytes.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	return append([]byte(nil), data...), nil
}

// Delete removes the slot.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
