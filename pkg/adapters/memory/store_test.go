package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSlotStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	data := []byte(`{"id":"USER"}`)
	require.NoError(t, store.Save(ctx, "auth_user", data))
	data[0] = 'X'

	loaded, err := store.Load(ctx, "auth_user")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), loaded[0], "Save must copy its input")

	loaded[0] = 'Y'
	again, err := store.Load(ctx, "auth_user")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), again[0], "Load must return a copy")

	assert.Equal(t, []string{"auth_user"}, store.Keys())
}

func TestMemoryBroadcaster_Contract(t *testing.T) {
	ports.RunBroadcasterContract(t, memory.NewBroadcaster())
}

func TestMemoryBroadcaster_CancelUnregisters(t *testing.T) {
	b := memory.NewBroadcaster()
	_, cancel, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	cancel()
	assert.Equal(t, 0, b.Len())

	// Publishing with no subscribers is fine.
	assert.NoError(t, b.Publish(context.Background(), ports.Message{Key: "auth_user"}))
}
