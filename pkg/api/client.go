package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/warden/pkg/domain"
)

// Session is the part of session.Manager the Client relies on.
type Session interface {
	IsAuthenticated() bool
	EnsureValidToken(ctx context.Context) bool
	Refresh(ctx context.Context) (*domain.AuthResponse, error)
	Logout(ctx context.Context)
}

// Client issues API calls on behalf of the current session.
type Client struct {
	transport *Transport
	session   Session
}

// NewClient binds a Transport to the session whose cookies it carries.
func NewClient(transport *Transport, session Session) *Client {
	return &Client{transport: transport, session: session}
}

// Transport returns the underlying Transport.
func (c *Client) Transport() *Transport {
	return c.transport
}

// Do sends a request and decodes a 2xx JSON body into out (nil to discard).
//
// Mutating requests made while logged in first ensure the token is fresh; if that
// fails the request is not sent and domain.ErrSessionExpired is returned.
// A 401 triggers one refresh and one retry. If the refresh fails or the retry is
// also rejected, the session is logged out and the error wraps domain.ErrSessionExpired.
// Any other non-2xx answer is a *domain.APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	isRefresh := path == refreshPath

	if !isRefresh && needsCSRF(method) && c.session.IsAuthenticated() {
		if !c.session.EnsureValidToken(ctx) {
			if err := ctx.Err(); err != nil {
				return err
			}
			return domain.ErrSessionExpired
		}
	}

	res, err := c.transport.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if res.status == http.StatusUnauthorized && !isRefresh {
		if _, err := c.session.Refresh(ctx); err != nil {
			if errors.Is(err, domain.ErrSessionExpired) {
				c.session.Logout(ctx)
			}
			return err
		}

		// The refresh rotated the CSRF cookie; send picks up the new one.
		res, err = c.transport.send(ctx, method, path, body)
		if err != nil {
			return err
		}
		if res.status == http.StatusUnauthorized {
			c.session.Logout(ctx)
			return fmt.Errorf("%w: %w", domain.ErrSessionExpired, res.apiError())
		}
	}

	return res.decode(out)
}

// Get is Do with GET.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post is Do with POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put is Do with PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete is Do with DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}
