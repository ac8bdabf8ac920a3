package session

import (
	"context"
	"fmt"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
)

// Sync re-reads the slot and adopts its value (last writer wins).
// It never touches the network. Listeners fire only if the identity changed.
func (m *Manager) Sync(ctx context.Context) error {
	m.opMu.Lock()
	next, err := m.loadSlot(ctx)
	if err != nil {
		m.opMu.Unlock()
		return fmt.Errorf("failed to read session slot: %w", err)
	}
	prev := m.current()
	changed := !prev.Equal(next)
	if changed {
		m.setIdentity(next)
	}
	m.opMu.Unlock()

	if !changed {
		return nil
	}

	m.logger.Debug("Session changed in another context", "slot", m.key, "authenticated", next != nil)
	m.notify(next)
	m.hooks.Emit(ctx, domain.NewAuthEvent(domain.EventSync, next))
	return nil
}

func (m *Manager) syncLoop(ctx context.Context, ch <-chan ports.Message) {
	defer close(m.syncDone)

	for msg := range ch {
		if msg.Origin == m.origin || msg.Key != m.key {
			continue
		}
		if err := m.Sync(ctx); err != nil {
			m.logger.Warn("Cross-context sync failed", "from", msg.Origin, "err", err)
		}
	}
}
