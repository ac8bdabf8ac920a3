package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/warden/internal/config"
	"github.com/aretw0/warden/internal/testutils"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, api *testutils.FakeAPI, store string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.APIBase = api.BaseURL()
	cfg.StateDir = t.TempDir()
	cfg.Store = store
	return &cfg
}

func startApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := NewApp(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	return app
}

func TestApp_FileStoreSurvivesRestart(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	cfg := testConfig(t, fake, config.StoreFile)
	ctx := context.Background()

	first := startApp(t, cfg)
	_, err := first.Client.Login(ctx, testutils.AdminEmail, testutils.AdminPassword, domain.UserTypeAdmin)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := startApp(t, cfg)
	defer second.Close()
	assert.True(t, second.Client.Session.IsAdmin())
	assert.Equal(t, float64(1), gaugeValue(t, second))

	// Cookies were persisted too: the next invocation is still authorized.
	users, err := second.Client.API.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, users)
}

func TestApp_EncryptedFileSlot(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	cfg := testConfig(t, fake, config.StoreFile)
	cfg.EncryptionKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=" // 32 bytes

	app := startApp(t, cfg)
	defer app.Close()
	_, err := app.Client.Login(context.Background(), testutils.UserEmail, testutils.UserPassword, domain.UserTypeUser)
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg.StateDir + "/session/" + cfg.SlotKey + ".json")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"type"`)
}

func TestApp_RedisStore(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	mr := miniredis.RunT(t)
	cfg := testConfig(t, fake, config.StoreRedis)
	cfg.Redis.Addr = mr.Addr()

	app := startApp(t, cfg)
	defer app.Close()

	_, err := app.Client.Login(context.Background(), testutils.UserEmail, testutils.UserPassword, domain.UserTypeUser)
	require.NoError(t, err)
	assert.True(t, mr.Exists("warden:slot:auth_user"))

	assert.True(t, app.Client.Session.EnsureValidToken(context.Background()))
	assert.False(t, mr.Exists("warden:lock:refresh:auth_user"), "refresh lock released")
}

func TestApp_BadKeyOpensNoBackend(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	mr := miniredis.RunT(t)
	cfg := testConfig(t, fake, config.StoreRedis)
	cfg.Redis.Addr = mr.Addr()
	cfg.EncryptionKey = "c2hvcnQ=" // 5 bytes

	_, err := NewApp(cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, 0, mr.CurrentConnectionCount())
}

func TestApp_UnknownStore(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	cfg := testConfig(t, fake, "etcd")
	_, err := NewApp(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestApp_StatusHandler(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	app := startApp(t, testConfig(t, fake, config.StoreMemory))
	defer app.Close()

	_, err := app.Client.Login(context.Background(), testutils.AdminEmail, testutils.AdminPassword, domain.UserTypeAdmin)
	require.NoError(t, err)

	srv := httptest.NewServer(app.StatusHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), `warden_session_events_total{outcome="ok",type="login"} 1`)
	assert.Contains(t, body.String(), "warden_session_authenticated 1")
}

func TestRunWatch_PrintsChanges(t *testing.T) {
	fake := testutils.NewFakeAPI(t)
	cfg := testConfig(t, fake, config.StoreMemory)
	app := startApp(t, cfg)
	defer app.Close()

	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunWatch(ctx, app, WatchOptions{Out: out})
	}()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Watching slot") }, 2*time.Second, 10*time.Millisecond)

	_, err := app.Client.Login(ctx, testutils.AdminEmail, testutils.AdminPassword, domain.UserTypeAdmin)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "logged in as ADMIN (admin)") }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "Stopped watching.")
}

func TestPromptPassword(t *testing.T) {
	var out bytes.Buffer

	pw, err := PromptPassword(strings.NewReader("s3cret\n"), &out, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Equal(t, "Password: ", out.String())

	pw, err = PromptPassword(strings.NewReader("no-newline"), &out, "")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)

	_, err = PromptPassword(strings.NewReader("\n"), &out, "")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func gaugeValue(t *testing.T, app *App) float64 {
	t.Helper()
	families, err := app.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "warden_session_authenticated" {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("gauge not registered")
	return 0
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
