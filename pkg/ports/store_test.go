package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
)

// MockStore is a minimal SlotStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MockStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	return data, nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestSlotStore_Contract(t *testing.T) {
	ports.RunSlotStoreContract(t, NewMockStore())
}
