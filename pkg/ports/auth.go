package ports

import (
	"context"

	"github.com/aretw0/warden/pkg/domain"
)

// AuthAPI is the authentication surface of the remote API.
// Implementations map non-2xx answers to domain errors and transport failures to *domain.NetworkError.
type AuthAPI interface {
	// Login calls the admin or user login endpoint.
	// A rejected login returns *domain.AuthenticationError.
	Login(ctx context.Context, kind domain.UserType, creds domain.Credentials) (*domain.AuthResponse, error)

	// Refresh rotates the access token using the refresh cookie.
	Refresh(ctx context.Context) (*domain.AuthResponse, error)

	// Logout invalidates the server session.
	Logout(ctx context.Context) error

	// Check probes the current session without rotating tokens.
	Check(ctx context.Context) (*domain.CheckResponse, error)
}
