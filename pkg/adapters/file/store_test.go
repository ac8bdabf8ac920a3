package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/warden/pkg/adapters/file"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSlotStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "auth_user", []byte(`{"id":"ADMIN"}`)))

	info, err := os.Stat(filepath.Join(dir, "auth_user.json"))
	require.NoError(t, err, "slot must be stored as <key>.json")
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may be left behind")
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, store.Save(ctx, key, []byte("x")), "key %q", key)
		_, err := store.Load(ctx, key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, ".warden", file.New("").BasePath)
}

func TestFileBroadcaster_Contract(t *testing.T) {
	ports.RunBroadcasterContract(t, file.NewBroadcaster(t.TempDir()))
}

func TestFileBroadcaster_IgnoresSlotWrites(t *testing.T) {
	dir := t.TempDir()
	b := file.NewBroadcaster(dir)
	store := file.New(dir)
	ctx := context.Background()

	ch, cancel, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, store.Save(ctx, "auth_user", []byte(`{}`)))
	require.NoError(t, b.Publish(ctx, ports.Message{Key: "auth_user", Origin: "proc-1"}))

	select {
	case msg := <-ch:
		assert.Equal(t, "proc-1", msg.Origin, "only beacon rewrites produce messages")
	case <-time.After(3 * time.Second):
		t.Fatal("beacon change was not observed")
	}
}
