// Package cookies keeps the API session cookies on disk between CLI invocations.
package cookies

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	cookiejar "github.com/juju/persistent-cookiejar"
	"golang.org/x/net/publicsuffix"
)

// FileName is the jar file inside the state directory.
const FileName = "cookies.json"

// DefaultSessionTTL is how long browser-session cookies survive on disk.
const DefaultSessionTTL = 24 * time.Hour

// Jar is a persistent cookie jar. Session cookies (no Expires, no Max-Age) are
// kept for a fixed TTL instead of being dropped on save; the server's own token
// expiry still decides whether they are accepted.
type Jar struct {
	*cookiejar.Jar
	sessionTTL time.Duration
	now        func() time.Time
}

var _ http.CookieJar = (*Jar)(nil)

// Open loads (or creates) the jar stored in dir.
func Open(dir string, sessionTTL time.Duration) (*Jar, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	inner, err := cookiejar.New(&cookiejar.Options{
		Filename:         filepath.Join(dir, FileName),
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load cookie jar: %w", err)
	}
	return &Jar{Jar: inner, sessionTTL: sessionTTL, now: time.Now}, nil
}

// SetCookies stores cookies, turning session cookies into persistent ones.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	expires := j.now().Add(j.sessionTTL)
	for i, c := range cookies {
		if c.MaxAge == 0 && c.Expires.IsZero() {
			cp := *c
			cp.Expires = expires
			cookies[i] = &cp
		}
	}
	j.Jar.SetCookies(u, cookies)
}

// Clear drops every cookie and persists the empty jar.
func (j *Jar) Clear() error {
	j.Jar.RemoveAll()
	return j.Save()
}
