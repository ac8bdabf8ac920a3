package session

import (
	"sync"

	"github.com/aretw0/warden/pkg/domain"
)

// Listener receives the identity after a state transition; nil means logged out.
type Listener func(identity *domain.Identity)

type listenerEntry struct {
	id uint64
	fn Listener
}

// AddAuthListener registers fn to run after every transition (login, logout,
// expiry, refresh re-derivation, cross-context change). Listeners run synchronously,
// in registration order, outside the manager's locks.
// The returned function unregisters fn; calling it more than once is harmless.
func (m *Manager) AddAuthListener(fn Listener) func() {
	m.listenersMu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners = append(m.listeners, listenerEntry{id: id, fn: fn})
	m.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.listenersMu.Lock()
			defer m.listenersMu.Unlock()
			for i, l := range m.listeners {
				if l.id == id {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (m *Manager) notify(identity *domain.Identity) {
	m.listenersMu.Lock()
	snapshot := make([]listenerEntry, len(m.listeners))
	copy(snapshot, m.listeners)
	m.listenersMu.Unlock()

	for _, l := range snapshot {
		l.fn(identity.Clone())
	}
}
