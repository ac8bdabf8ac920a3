package ports

import (
	"context"
	"time"
)

// Message announces that the slot under Key was written by Origin.
// It carries no identity: receivers re-read the slot, which stays the source of truth.
type Message struct {
	Key    string    `json:"key"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// CancelFunc stops a subscription and releases its resources.
type CancelFunc func()

// Broadcaster is the cross-context change channel (the equivalent of a browser storage event).
// Delivery is best-effort and unordered across publishers: last writer wins.
type Broadcaster interface {
	// Publish notifies every subscriber, including other processes where supported.
	Publish(ctx context.Context, msg Message) error

	// Subscribe returns a channel of messages that is closed after cancel is called
	// or ctx is done. The subscription is active when Subscribe returns.
	Subscribe(ctx context.Context) (<-chan Message, CancelFunc, error)
}
