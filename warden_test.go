package warden_test

import (
	"context"
	"crypto/rand"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/aretw0/warden"
	"github.com/aretw0/warden/internal/testutils"
	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, opts ...warden.Option) *warden.Client {
	t.Helper()
	c, err := warden.New(opts...)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := warden.New(warden.WithBaseURL("ftp://example.com"))
	assert.Error(t, err)
}

func TestNew_EncryptionNeedsStore(t *testing.T) {
	_, err := warden.New(warden.WithEncryption(make([]byte, 32)))
	assert.Error(t, err)
}

func TestNew_RejectsShortKey(t *testing.T) {
	_, err := warden.New(
		warden.WithStore(memory.NewStore()),
		warden.WithEncryption([]byte("short")),
	)
	assert.Error(t, err)
}

func TestClient_LoginAndManageUsers(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	ctx := context.Background()

	var seen []*domain.Identity
	c := newClient(t,
		warden.WithBaseURL(fake.BaseURL()),
		warden.WithTimeout(5*time.Second),
		warden.WithAuthListener(func(id *domain.Identity) { seen = append(seen, id) }),
	)

	id, err := c.Login(ctx, testutils.AdminEmail, testutils.AdminPassword, domain.UserTypeAdmin)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", id.Role)
	assert.Equal(t, domain.UserTypeAdmin, c.Identity().Type)

	users, err := c.API.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	c.Logout(ctx)
	assert.Nil(t, c.Identity())
	require.Len(t, seen, 2)
	assert.NotNil(t, seen[0])
	assert.Nil(t, seen[1])
}

func TestClient_LoginRejected(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	c := newClient(t, warden.WithBaseURL(fake.BaseURL()))

	_, err := c.Login(context.Background(), testutils.UserEmail, "wrong", domain.UserTypeUser)

	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid user credentials", authErr.Message)
	assert.Nil(t, c.Identity())
}

func TestClient_EncryptedSlotSurvivesRestart(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	store := memory.NewStore()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	first := newClient(t,
		warden.WithBaseURL(fake.BaseURL()),
		warden.WithStore(store),
		warden.WithEncryption(key),
	)
	_, err = first.Login(context.Background(), testutils.UserEmail, testutils.UserPassword, domain.UserTypeUser)
	require.NoError(t, err)

	raw, err := store.Load(context.Background(), "auth_user")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"role"`, "slot is stored encrypted")

	second := newClient(t,
		warden.WithBaseURL(fake.BaseURL()),
		warden.WithStore(store),
		warden.WithEncryption(key),
	)
	assert.True(t, second.Session.IsUser())
}

func TestClient_SharedSessionAcrossClients(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	store := memory.NewStore()
	hub := memory.NewBroadcaster()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	a := newClient(t, warden.WithBaseURL(fake.BaseURL()), warden.WithStore(store), warden.WithBroadcaster(hub), warden.WithHTTPClient(&http.Client{Jar: jar}))
	changed := make(chan *domain.Identity, 1)
	b := newClient(t,
		warden.WithBaseURL(fake.BaseURL()),
		warden.WithStore(store),
		warden.WithBroadcaster(hub),
		warden.WithHTTPClient(&http.Client{Jar: jar}),
		warden.WithAuthListener(func(id *domain.Identity) { changed <- id }),
	)

	_, err = a.Login(context.Background(), testutils.AdminEmail, testutils.AdminPassword, domain.UserTypeAdmin)
	require.NoError(t, err)

	select {
	case id := <-changed:
		require.NotNil(t, id)
		assert.Equal(t, domain.UserTypeAdmin, id.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("second client never saw the login")
	}

	// Cookies are shared too, so the second client can call the API right away.
	profile, err := b.API.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutils.AdminEmail, profile.Email)
}
