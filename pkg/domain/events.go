package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventLogin   EventType = "login"
	EventRefresh EventType = "refresh"
	EventLogout  EventType = "logout"
	EventExpire  EventType = "expire"
	EventSync    EventType = "sync"
)

// AuthEvent describes one session operation and its outcome.
type AuthEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Kind      UserType  `json:"kind,omitempty"`
	Identity  *Identity `json:"identity,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// NewAuthEvent stamps a new event.
func NewAuthEvent(t EventType, identity *Identity) *AuthEvent {
	return &AuthEvent{
		Timestamp: time.Now(),
		Type:      t,
		Identity:  identity.Clone(),
	}
}

// Hooks defines callbacks for session observability.
type Hooks struct {
	OnLogin   func(context.Context, *AuthEvent)
	OnRefresh func(context.Context, *AuthEvent)
	OnLogout  func(context.Context, *AuthEvent)
	OnExpire  func(context.Context, *AuthEvent)
	OnSync    func(context.Context, *AuthEvent)
}

// Emit routes the event to the matching callback, if any.
func (h Hooks) Emit(ctx context.Context, ev *AuthEvent) {
	var fn func(context.Context, *AuthEvent)
	switch ev.Type {
	case EventLogin:
		fn = h.OnLogin
	case EventRefresh:
		fn = h.OnRefresh
	case EventLogout:
		fn = h.OnLogout
	case EventExpire:
		fn = h.OnExpire
	case EventSync:
		fn = h.OnSync
	}
	if fn != nil {
		fn(ctx, ev)
	}
}

// Merge chains two hook sets, calling h before other.
func (h Hooks) Merge(other Hooks) Hooks {
	chain := func(a, b func(context.Context, *AuthEvent)) func(context.Context, *AuthEvent) {
		if a == nil {
			return b
		}
		if b == nil {
			return a
		}
		return func(ctx context.Context, ev *AuthEvent) {
			a(ctx, ev)
			b(ctx, ev)
		}
	}
	return Hooks{
		OnLogin:   chain(h.OnLogin, other.OnLogin),
		OnRefresh: chain(h.OnRefresh, other.OnRefresh),
		OnLogout:  chain(h.OnLogout, other.OnLogout),
		OnExpire:  chain(h.OnExpire, other.OnExpire),
		OnSync:    chain(h.OnSync, other.OnSync),
	}
}
