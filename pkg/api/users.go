package api

import (
	"context"
	"fmt"

	"github.com/aretw0/warden/pkg/domain"
)

func userPath(id int) string {
	return fmt.Sprintf("/admin/users/%d", id)
}

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.Get(ctx, "/admin/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns one account. Admin only.
func (c *Client) GetUser(ctx context.Context, id int) (*domain.User, error) {
	var user domain.User
	if err := c.Get(ctx, userPath(id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates an unverified account; the API mails a one-time code to its
// address, confirmed later with VerifyOTP.
func (c *Client) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	var user domain.User
	if err := c.Post(ctx, "/admin/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update.
func (c *Client) UpdateUser(ctx context.Context, id int, req domain.UpdateUserRequest) (*domain.User, error) {
	var user domain.User
	if err := c.Put(ctx, userPath(id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.Delete(ctx, userPath(id), nil)
}

// VerifyOTP confirms a freshly created account.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	var out domain.MessageResponse
	if err := c.Post(ctx, "/auth/verify-otp", domain.OTPVerification{Email: email, OTP: otp}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
