package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultSlotKey is the slot holding the serialized identity.
const DefaultSlotKey = "auth_user"

// Manager is the single source of truth for "who is logged in".
// It owns the in-memory identity, mirrors it to a SlotStore, coalesces concurrent
// refreshes into one network call and propagates changes to listeners and, through
// a Broadcaster, to other managers sharing the slot.
type Manager struct {
	api         ports.AuthAPI
	store       ports.SlotStore
	broadcaster ports.Broadcaster
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	logger      *slog.Logger
	hooks       domain.Hooks
	key         string
	origin      string

	mu       sync.RWMutex // guards identity
	identity *domain.Identity

	// opMu serializes "change identity + write slot" against "read slot + adopt",
	// so memory and slot never diverge after a local transition.
	opMu sync.Mutex

	listenersMu  sync.Mutex
	listeners    []listenerEntry
	nextListener uint64

	flights singleflight.Group

	lifecycleMu sync.Mutex
	started     bool
	stopSync    ports.CancelFunc
	syncDone    chan struct{}
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore sets the slot store. Defaults to an in-memory store.
func WithStore(store ports.SlotStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithBroadcaster enables cross-context synchronization.
func WithBroadcaster(b ports.Broadcaster) Option {
	return func(m *Manager) {
		m.broadcaster = b
	}
}

// WithLocker serializes refreshes across processes. ttl bounds both how long a crashed
// holder can block others and how long a refresh waits for the lock.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithSlotKey overrides DefaultSlotKey.
func WithSlotKey(key string) Option {
	return func(m *Manager) {
		m.key = key
	}
}

// WithOrigin sets the id stamped on broadcasts. Defaults to a random UUID.
func WithOrigin(origin string) Option {
	return func(m *Manager) {
		m.origin = origin
	}
}

// NewManager creates a Manager talking to api.
// Call Start to restore the persisted identity and begin cross-context sync.
func NewManager(api ports.AuthAPI, opts ...Option) *Manager {
	m := &Manager{
		api:     api,
		store:   memory.NewStore(),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
		key:     DefaultSlotKey,
		origin:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start restores the identity from the slot and subscribes to the broadcaster.
// A corrupt slot is treated as "no session" and removed; it is not an error.
func (m *Manager) Start(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if m.started {
		return errors.New("session manager already started")
	}

	m.opMu.Lock()
	identity, err := m.loadSlot(ctx)
	if err == nil {
		m.setIdentity(identity)
	}
	m.opMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	if m.broadcaster != nil {
		ch, cancel, err := m.broadcaster.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("failed to subscribe to session changes: %w", err)
		}
		m.stopSync = cancel
		m.syncDone = make(chan struct{})
		go m.syncLoop(ctx, ch)
	}

	m.started = true
	m.logger.Debug("Session restored", "slot", m.key, "authenticated", identity != nil, "origin", m.origin)
	return nil
}

// Close stops cross-context synchronization. The identity stays in memory.
func (m *Manager) Close() error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if !m.started {
		return nil
	}
	if m.stopSync != nil {
		m.stopSync()
		<-m.syncDone
		m.stopSync = nil
	}
	m.started = false
	return nil
}

// Login authenticates against the admin or user endpoint and stores the resulting identity.
// Rejections surface as *domain.AuthenticationError, transport failures as *domain.NetworkError.
// Concurrent logins are not deduplicated.
func (m *Manager) Login(ctx context.Context, email, password string, kind domain.UserType) (*domain.AuthResponse, error) {
	resp, err := m.api.Login(ctx, kind, domain.Credentials{Email: email, Password: password})
	if err != nil {
		ev := domain.NewAuthEvent(domain.EventLogin, nil)
		ev.Kind = kind
		ev.IsError = true
		ev.Reason = err.Error()
		m.hooks.Emit(ctx, ev)
		return nil, err
	}

	identity := &domain.Identity{
		// The login response carries no user id; the role stands in for it.
		ID:   resp.Role,
		Role: resp.Role,
		Type: resp.Type,
	}
	if identity.Type == "" {
		identity.Type = kind
	}

	m.transition(ctx, identity)
	m.notify(identity)

	ev := domain.NewAuthEvent(domain.EventLogin, identity)
	ev.Kind = kind
	m.hooks.Emit(ctx, ev)
	m.logger.Info("Logged in", "role", identity.Role, "type", identity.Type)
	return resp, nil
}

// Logout asks the API to invalidate the session and clears local state whatever the answer.
// It never fails from the caller's perspective.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		m.logger.Warn("Logout request failed", "err", err)
	}

	m.transition(ctx, nil)
	m.notify(nil)

	m.hooks.Emit(ctx, domain.NewAuthEvent(domain.EventLogout, nil))
	m.logger.Info("Logged out")
}

// EnsureValidToken refreshes the session if there is one.
// It returns false without any network call when unauthenticated, and false with the
// session cleared when the refresh fails.
func (m *Manager) EnsureValidToken(ctx context.Context) bool {
	if !m.IsAuthenticated() {
		return false
	}

	// A failed flight has already cleared the session. A caller that merely gave up
	// waiting leaves the outcome to the flight.
	_, err := m.Refresh(ctx)
	return err == nil
}

// CheckSession probes the API without rotating tokens.
// Any failure clears the local session, except a probe cut short by ctx:
// that says nothing about the session and leaves it in place.
func (m *Manager) CheckSession(ctx context.Context) bool {
	if !m.IsAuthenticated() {
		return false
	}

	resp, err := m.api.Check(ctx)
	if err == nil && resp != nil && resp.Valid {
		return true
	}
	if ctx.Err() != nil {
		m.logger.Debug("Session check abandoned", "err", ctx.Err())
		return false
	}

	reason := "session probe rejected"
	if err != nil {
		reason = err.Error()
	}
	m.logger.Warn("Session check failed", "reason", reason)
	m.expire(ctx, reason)
	return false
}

// IsAuthenticated reports whether an identity is held.
func (m *Manager) IsAuthenticated() bool {
	return m.current() != nil
}

// IsAdmin reports whether the identity came from the admin login.
func (m *Manager) IsAdmin() bool {
	id := m.current()
	return id != nil && id.Type == domain.UserTypeAdmin
}

// IsUser reports whether the identity came from the user login.
func (m *Manager) IsUser() bool {
	id := m.current()
	return id != nil && id.Type == domain.UserTypeUser
}

// Role returns the current role, or "" when logged out.
func (m *Manager) Role() string {
	if id := m.current(); id != nil {
		return id.Role
	}
	return ""
}

// Identity returns a copy of the current identity, or nil when logged out.
func (m *Manager) Identity() *domain.Identity {
	return m.current().Clone()
}

// SlotKey returns the slot this manager persists to.
func (m *Manager) SlotKey() string {
	return m.key
}

// Origin returns the id this manager stamps on its broadcasts.
func (m *Manager) Origin() string {
	return m.origin
}

func (m *Manager) current() *domain.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity
}

func (m *Manager) setIdentity(id *domain.Identity) {
	m.mu.Lock()
	m.identity = id
	m.mu.Unlock()
}

// transition replaces the identity, writes the slot and announces the change.
// Slot failures are logged: the in-memory state is authoritative for this process.
// Returns whether the identity actually changed.
func (m *Manager) transition(ctx context.Context, next *domain.Identity) bool {
	m.opMu.Lock()
	prev := m.current()
	m.setIdentity(next.Clone())
	err := m.writeSlot(ctx, next)
	m.opMu.Unlock()

	if err != nil {
		m.logger.Warn("Failed to persist session", "slot", m.key, "err", err)
	}
	m.publish(ctx)
	return !prev.Equal(next)
}

// expire clears the session after a failed refresh or probe.
// Listeners fire only if there was something to clear.
func (m *Manager) expire(ctx context.Context, reason string) {
	prev := m.Identity()
	if changed := m.transition(ctx, nil); changed {
		m.notify(nil)
	}

	ev := domain.NewAuthEvent(domain.EventExpire, prev)
	ev.IsError = true
	ev.Reason = reason
	m.hooks.Emit(ctx, ev)
}

func (m *Manager) writeSlot(ctx context.Context, id *domain.Identity) error {
	if id == nil {
		return m.store.Delete(ctx, m.key)
	}
	data, err := domain.EncodeIdentity(id)
	if err != nil {
		return err
	}
	return m.store.Save(ctx, m.key, data)
}

// loadSlot reads the persisted identity. Missing and corrupt slots both yield nil;
// a corrupt slot is deleted so the next reader does not trip over it.
func (m *Manager) loadSlot(ctx context.Context) (*domain.Identity, error) {
	data, err := m.store.Load(ctx, m.key)
	if err != nil {
		if errors.Is(err, domain.ErrSlotNotFound) {
			return nil, nil
		}
		if errors.Is(err, domain.ErrStorageCorruption) {
			m.discardCorrupt(ctx, err)
			return nil, nil
		}
		return nil, err
	}

	id, err := domain.DecodeIdentity(data)
	if err != nil {
		m.discardCorrupt(ctx, err)
		return nil, nil
	}
	return id, nil
}

func (m *Manager) discardCorrupt(ctx context.Context, cause error) {
	m.logger.Warn("Discarding corrupt session slot", "slot", m.key, "err", cause)
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.logger.Warn("Failed to delete corrupt session slot", "slot", m.key, "err", err)
	}
}

func (m *Manager) publish(ctx context.Context) {
	if m.broadcaster == nil {
		return
	}
	msg := ports.Message{Key: m.key, Origin: m.origin, At: time.Now()}
	if err := m.broadcaster.Publish(ctx, msg); err != nil {
		m.logger.Warn("Failed to broadcast session change", "slot", m.key, "err", err)
	}
}
