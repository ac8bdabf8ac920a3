package ports

import (
	"context"
)

// SlotStore persists small opaque values under a key.
// The session manager keeps exactly one slot: the serialized identity.
type SlotStore interface {
	// Save overwrites the value stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Load retrieves the value stored under key.
	// Returns domain.ErrSlotNotFound if nothing is stored.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
