package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

const defaultChannel = "warden:events"

// Broadcaster implements ports.Broadcaster over Redis PUBLISH/SUBSCRIBE.
type Broadcaster struct {
	client  *backend.Client
	channel string
	logger  *slog.Logger
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithChannel sets the pub/sub channel name.
func WithChannel(channel string) BroadcasterOption {
	return func(b *Broadcaster) {
		b.channel = channel
	}
}

// WithLogger configures a logger for undecodable messages.
func WithLogger(logger *slog.Logger) BroadcasterOption {
	return func(b *Broadcaster) {
		b.logger = logger
	}
}

// NewBroadcaster creates a Broadcaster on an existing client.
func NewBroadcaster(client *backend.Client, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		client:  client,
		channel: defaultChannel,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends the message to every subscriber of the channel.
func (b *Broadcaster) Publish(ctx context.Context, msg ports.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Subscribe waits for the SUBSCRIBE confirmation before returning, so no message
// published afterwards is missed.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan ports.Message, ports.CancelFunc, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	out := make(chan ports.Message, 16)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}

	go func() {
		defer close(out)
		defer ps.Close()

		src := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case raw, ok := <-src:
				if !ok {
					return
				}
				var msg ports.Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.logger.Warn("Dropping undecodable broadcast", "channel", raw.Channel, "err", err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	return out, cancel, nil
}
