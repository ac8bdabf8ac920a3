package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/warden/pkg/adapters/redis"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSlotStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	err := store.Save(ctx, "auth_user", []byte(`{"id":"USER","role":"USER","type":"user"}`))
	require.NoError(t, err)

	_, err = store.Load(ctx, "auth_user")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "auth_user")
	assert.ErrorIs(t, err, domain.ErrSlotNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Save(ctx, "auth_user", []byte("payload"))
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:auth_user"), "Expected key with custom prefix to exist")

	got, err := mr.Get("custom:app:auth_user")
	require.NoError(t, err)
	assert.Equal(t, "payload", got)
}

func TestRedisBroadcaster_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunBroadcasterContract(t, redis.NewBroadcaster(client))
}

func TestRedisBroadcaster_CustomChannel(t *testing.T) {
	_, client := newClient(t)
	ctx := context.Background()

	a := redis.NewBroadcaster(client, redis.WithChannel("app:a"))
	b := redis.NewBroadcaster(client, redis.WithChannel("app:b"))

	chA, cancelA, err := a.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelA()

	require.NoError(t, b.Publish(ctx, ports.Message{Key: "auth_user", Origin: "other-app"}))
	require.NoError(t, a.Publish(ctx, ports.Message{Key: "auth_user", Origin: "same-app"}))

	select {
	case msg := <-chA:
		assert.Equal(t, "same-app", msg.Origin, "messages on other channels must not leak")
	case <-time.After(3 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisBroadcaster_DropsGarbage(t *testing.T) {
	mr, client := newClient(t)
	ctx := context.Background()

	b := redis.NewBroadcaster(client)
	ch, cancel, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	mr.Publish("warden:events", "not-json")
	require.NoError(t, b.Publish(ctx, ports.Message{Key: "auth_user", Origin: "tab-2"}))

	select {
	case msg := <-ch:
		assert.Equal(t, "tab-2", msg.Origin)
	case <-time.After(3 * time.Second):
		t.Fatal("valid message after garbage was not delivered")
	}
}
