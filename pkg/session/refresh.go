package session

import (
	"context"
	"fmt"

	"github.com/aretw0/warden/pkg/domain"
)

const refreshFlight = "refresh"

// Refresh rotates the access token.
//
// At most one network refresh is outstanding at any instant: callers arriving while
// one is pending share its result (the returned response is shared and must be
// treated as read-only). The shared call runs to completion even if the caller that
// started it goes away; a caller whose ctx ends just stops waiting.
//
// On failure the session is cleared and the error wraps domain.ErrSessionExpired.
func (m *Manager) Refresh(ctx context.Context) (*domain.AuthResponse, error) {
	ch := m.flights.DoChan(refreshFlight, func() (any, error) {
		return m.performRefresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.AuthResponse), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) performRefresh(ctx context.Context) (*domain.AuthResponse, error) {
	if m.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, m.lockTTL)
		unlock, err := m.locker.Lock(lockCtx, refreshFlight+":"+m.key, m.lockTTL)
		cancel()
		if err != nil {
			m.expire(ctx, "refresh lock unavailable")
			return nil, fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release refresh lock (will expire via TTL)", "slot", m.key, "err", err)
			}
		}()
	}

	resp, err := m.api.Refresh(ctx)
	if err != nil {
		m.logger.Warn("Refresh rejected, clearing session", "err", err)
		m.expire(ctx, err.Error())
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}

	m.adoptRefresh(ctx, resp)
	m.hooks.Emit(ctx, domain.NewAuthEvent(domain.EventRefresh, m.current()))
	return resp, nil
}

// adoptRefresh replaces role/type when the refresh response carries them.
// Nothing is adopted while logged out: a refresh alone never logs anybody in.
func (m *Manager) adoptRefresh(ctx context.Context, resp *domain.AuthResponse) {
	if resp.Type != domain.UserTypeAdmin && resp.Type != domain.UserTypeUser {
		return
	}
	prev := m.current()
	if prev == nil {
		return
	}

	next := prev.Clone()
	if next.ID == next.Role {
		next.ID = resp.Role
	}
	next.Role = resp.Role
	next.Type = resp.Type
	if next.Equal(prev) {
		return
	}

	if m.transition(ctx, next) {
		m.notify(next)
	}
}
