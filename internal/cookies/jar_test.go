package cookies_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/aretw0/warden/internal/cookies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(cs []*http.Cookie) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestJar_PersistsSessionCookies(t *testing.T) {
	dir := t.TempDir()
	u, err := url.Parse("http://localhost:5000/api/auth/user-login")
	require.NoError(t, err)

	jar, err := cookies.Open(dir, time.Hour)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{
		{Name: "access_token_cookie", Value: "jwt", Path: "/", HttpOnly: true},
		{Name: "csrf_access_token", Value: "abc", Path: "/"},
	})
	require.NoError(t, jar.Save())

	reopened, err := cookies.Open(dir, time.Hour)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"access_token_cookie", "csrf_access_token"}, names(reopened.Cookies(u)))
}

func TestJar_DeletionCookiesRemoveEntries(t *testing.T) {
	dir := t.TempDir()
	u, err := url.Parse("http://localhost:5000/api/auth/logout")
	require.NoError(t, err)

	jar, err := cookies.Open(dir, 0)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "csrf_access_token", Value: "abc", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "csrf_access_token", Value: "", Path: "/", MaxAge: -1}})

	assert.Empty(t, jar.Cookies(u))
}

func TestJar_Clear(t *testing.T) {
	dir := t.TempDir()
	u, err := url.Parse("http://localhost:5000/api")
	require.NoError(t, err)

	jar, err := cookies.Open(dir, time.Hour)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "csrf_access_token", Value: "abc", Path: "/"}})
	require.NoError(t, jar.Clear())

	reopened, err := cookies.Open(dir, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, reopened.Cookies(u))
}
