package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSlotStoreContract runs a suite of tests to verify that a SlotStore implementation
// adheres to the defined interface contract.
func RunSlotStoreContract(t *testing.T, store SlotStore) {
	ctx := context.Background()
	key := "contract-test-slot-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		payload := []byte(`{"id":"ADMIN","role":"ADMIN","type":"admin"}`)

		err := store.Save(ctx, key, payload)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, payload, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, []byte("first")))
		require.NoError(t, store.Save(ctx, key, []byte("second")))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(loaded), "last writer wins")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSlotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, []byte("doomed")))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSlotNotFound, "Load after Delete should return ErrSlotNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Delete of a missing key should be a no-op")
	})
}

// RunBroadcasterContract verifies that a Broadcaster delivers published messages to
// every active subscriber and closes the channel on cancel.
func RunBroadcasterContract(t *testing.T, b Broadcaster) {
	ctx := context.Background()

	t.Run("Publish reaches all subscribers", func(t *testing.T) {
		ch1, cancel1, err := b.Subscribe(ctx)
		require.NoError(t, err)
		defer cancel1()
		ch2, cancel2, err := b.Subscribe(ctx)
		require.NoError(t, err)
		defer cancel2()

		msg := Message{Key: "auth_user", Origin: "tab-1", At: time.Now()}
		require.NoError(t, b.Publish(ctx, msg))

		for i, ch := range []<-chan Message{ch1, ch2} {
			select {
			case got := <-ch:
				assert.Equal(t, msg.Key, got.Key, "subscriber %d", i)
				assert.Equal(t, msg.Origin, got.Origin, "subscriber %d", i)
			case <-time.After(3 * time.Second):
				t.Fatalf("subscriber %d did not receive the message", i)
			}
		}
	})

	t.Run("Cancel closes the channel", func(t *testing.T) {
		ch, cancel, err := b.Subscribe(ctx)
		require.NoError(t, err)
		cancel()
		cancel() // idempotent

		deadline := time.After(3 * time.Second)
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("channel was not closed after cancel")
			}
		}
	})

	t.Run("Context cancellation closes the channel", func(t *testing.T) {
		subCtx, stop := context.WithCancel(ctx)
		ch, cancel, err := b.Subscribe(subCtx)
		require.NoError(t, err)
		defer cancel()
		stop()

		deadline := time.After(3 * time.Second)
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("channel was not closed after context cancellation")
			}
		}
	})
}
