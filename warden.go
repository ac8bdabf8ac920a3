package warden

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/api"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/persistence/middleware"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/aretw0/warden/pkg/session"
)

// Client is the high-level entry point: a session store wired to an API client.
type Client struct {
	// Session owns the identity and the refresh policy.
	Session *session.Manager
	// API issues authenticated calls on behalf of Session.
	API *api.Client

	transport *api.Transport
}

type options struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	logger      *slog.Logger
	store       ports.SlotStore
	broadcaster ports.Broadcaster
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	hooks       domain.Hooks
	slotKey     string
	origin      string
	encryption  *middleware.EncryptionConfig
	listeners   []session.Listener
}

// Option defines a functional option for configuring the Client.
type Option func(*options)

// WithBaseURL sets the API root (default api.DefaultBaseURL).
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithHTTPClient sets the HTTP client; its cookie jar, if any, holds the session cookies.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout bounds every API request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore sets where the identity slot is persisted (default: memory).
func WithStore(store ports.SlotStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithBroadcaster shares session changes with other clients using the same slot.
func WithBroadcaster(b ports.Broadcaster) Option {
	return func(o *options) {
		o.broadcaster = b
	}
}

// WithLocker serializes token refreshes across processes.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(o *options) {
		o.locker = locker
		o.lockTTL = ttl
	}
}

// WithHooks registers observability hooks. Repeated calls accumulate.
func WithHooks(hooks domain.Hooks) Option {
	return func(o *options) {
		o.hooks = o.hooks.Merge(hooks)
	}
}

// WithAuthListener registers a listener before Start, so it also sees changes
// synchronized right after startup.
func WithAuthListener(fn session.Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, fn)
	}
}

// WithSlotKey overrides the persisted slot name.
func WithSlotKey(key string) Option {
	return func(o *options) {
		o.slotKey = key
	}
}

// WithOrigin sets the id this client stamps on its broadcasts.
func WithOrigin(origin string) Option {
	return func(o *options) {
		o.origin = origin
	}
}

// WithEncryption encrypts the persisted slot with AES-256-GCM.
// Fallback keys are only used to read slots written before a key rotation.
func WithEncryption(activeKey []byte, fallbackKeys ...[]byte) Option {
	return func(o *options) {
		o.encryption = &middleware.EncryptionConfig{ActiveKey: activeKey, FallbackKeys: fallbackKeys}
	}
}

// New assembles a Client. Call Start before use.
func New(opts ...Option) (*Client, error) {
	o := &options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	transportOpts := []api.Option{api.WithLogger(o.logger)}
	if o.httpClient != nil {
		transportOpts = append(transportOpts, api.WithHTTPClient(o.httpClient))
	}
	if o.timeout > 0 {
		transportOpts = append(transportOpts, api.WithTimeout(o.timeout))
	}
	transport, err := api.NewTransport(o.baseURL, transportOpts...)
	if err != nil {
		return nil, err
	}

	sessionOpts := []session.Option{
		session.WithLogger(o.logger),
		session.WithHooks(o.hooks),
	}
	if o.store != nil {
		store := o.store
		if o.encryption != nil {
			enc, err := middleware.NewEncryptionMiddleware(*o.encryption)
			if err != nil {
				return nil, fmt.Errorf("invalid encryption config: %w", err)
			}
			store = middleware.Chain(store, enc)
		}
		sessionOpts = append(sessionOpts, session.WithStore(store))
	} else if o.encryption != nil {
		return nil, fmt.Errorf("encryption requires a store")
	}
	if o.broadcaster != nil {
		sessionOpts = append(sessionOpts, session.WithBroadcaster(o.broadcaster))
	}
	if o.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(o.locker, o.lockTTL))
	}
	if o.slotKey != "" {
		sessionOpts = append(sessionOpts, session.WithSlotKey(o.slotKey))
	}
	if o.origin != "" {
		sessionOpts = append(sessionOpts, session.WithOrigin(o.origin))
	}

	mgr := session.NewManager(transport, sessionOpts...)
	for _, fn := range o.listeners {
		mgr.AddAuthListener(fn)
	}

	return &Client{
		Session:   mgr,
		API:       api.NewClient(transport, mgr),
		transport: transport,
	}, nil
}

// Start restores the persisted identity and begins cross-process sync.
func (c *Client) Start(ctx context.Context) error {
	return c.Session.Start(ctx)
}

// Close stops cross-process sync.
func (c *Client) Close() error {
	return c.Session.Close()
}

// Transport exposes the raw HTTP side (base URL, cookie jar).
func (c *Client) Transport() *api.Transport {
	return c.transport
}

// Login authenticates as an administrator or a regular user.
func (c *Client) Login(ctx context.Context, email, password string, kind domain.UserType) (*domain.Identity, error) {
	if _, err := c.Session.Login(ctx, email, password, kind); err != nil {
		return nil, err
	}
	return c.Session.Identity(), nil
}

// Logout ends the session locally and, best effort, on the server.
func (c *Client) Logout(ctx context.Context) {
	c.Session.Logout(ctx)
}

// Identity returns who is logged in, or nil.
func (c *Client) Identity() *domain.Identity {
	return c.Session.Identity()
}
