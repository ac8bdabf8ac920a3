package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
)

var _ ports.AuthAPI = (*Transport)(nil)

const loginFailed = "Login failed"

func loginPath(kind domain.UserType) (string, error) {
	switch kind {
	case domain.UserTypeAdmin:
		return "/auth/admin-login", nil
	case domain.UserTypeUser:
		return "/auth/user-login", nil
	default:
		return "", fmt.Errorf("unknown login kind %q", kind)
	}
}

// Login posts credentials to the admin or user login endpoint.
func (t *Transport) Login(ctx context.Context, kind domain.UserType, creds domain.Credentials) (*domain.AuthResponse, error) {
	path, err := loginPath(kind)
	if err != nil {
		return nil, err
	}

	res, err := t.send(ctx, http.MethodPost, path, creds)
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		msg, ok := bodyMessage(res.body)
		if !ok {
			msg = loginFailed
		}
		return nil, &domain.AuthenticationError{Status: res.status, Message: msg}
	}

	var out domain.AuthResponse
	if err := res.decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates the access cookie. The API answers with the new access token only;
// role and type are then read from its claims.
func (t *Transport) Refresh(ctx context.Context) (*domain.AuthResponse, error) {
	res, err := t.send(ctx, http.MethodPost, refreshPath, nil)
	if err != nil {
		return nil, err
	}

	var out domain.AuthResponse
	if err := res.decode(&out); err != nil {
		return nil, err
	}
	if out.Role == "" || out.Type == "" {
		if claims, ok := claimsFromToken(out.AccessToken); ok {
			if out.Role == "" {
				out.Role = claims.Role
			}
			if out.Type == "" {
				out.Type = claims.Type
			}
		}
	}
	return &out, nil
}

// Logout invalidates the server session and clears its cookies.
func (t *Transport) Logout(ctx context.Context) error {
	res, err := t.send(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	return res.decode(nil)
}

// Check probes the session without rotating anything.
func (t *Transport) Check(ctx context.Context) (*domain.CheckResponse, error) {
	res, err := t.send(ctx, http.MethodGet, "/auth/check", nil)
	if err != nil {
		return nil, err
	}

	var out domain.CheckResponse
	if err := res.decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
