package testutils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type claimsKey struct{}

func claimsFrom(r *http.Request) *tokenClaims {
	c, _ := r.Context().Value(claimsKey{}).(*tokenClaims)
	return c
}

// issue mints a token of the given kind and sets it, with its CSRF twin, as cookies.
func (f *FakeAPI) issue(w http.ResponseWriter, subject, kind, role, userType string) string {
	f.mu.Lock()
	gen := f.generation[kind]
	f.mu.Unlock()

	csrf := uuid.NewString()
	now := time.Now()
	claims := &tokenClaims{
		Role: role,
		Type: userType,
		Kind: kind,
		CSRF: csrf,
		Gen:  gen,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		panic(fmt.Sprintf("sign %s token: %v", kind, err))
	}

	tokenCookie, csrfCookie := accessCookie, csrfAccessCookie
	if kind == "refresh" {
		tokenCookie, csrfCookie = refreshCookie, csrfRefreshCookie
	}
	http.SetCookie(w, &http.Cookie{Name: tokenCookie, Value: token, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: csrfCookie, Value: csrf, Path: "/"})
	return token
}

// verify checks the token cookie, its kind, whether it was revoked and, for
// mutating requests, the double-submit CSRF header.
func (f *FakeAPI) verify(r *http.Request, tokenCookie, kind string) (*tokenClaims, error) {
	cookie, err := r.Cookie(tokenCookie)
	if err != nil || cookie.Value == "" {
		return nil, fmt.Errorf("Missing cookie %q", tokenCookie)
	}

	var claims tokenClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(*jwt.Token) (any, error) {
		return f.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.New("Token is invalid")
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("Only %s tokens are allowed", kind)
	}

	f.mu.Lock()
	current := f.generation[kind]
	f.mu.Unlock()
	if claims.Gen < current {
		return nil, errors.New("Token has expired")
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
	default:
		header := r.Header.Get("X-CSRF-TOKEN")
		if header == "" {
			return nil, errors.New("Missing CSRF token")
		}
		if header != claims.CSRF {
			return nil, errors.New("CSRF double submit tokens do not match")
		}
	}
	return &claims, nil
}

func (f *FakeAPI) requireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := f.verify(r, accessCookie, "access")
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := claimsFrom(r); c == nil || c.Type != "admin" {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
