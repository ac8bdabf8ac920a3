package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/warden/pkg/domain"
)

// FakeAuthAPI is an in-memory ports.AuthAPI that records calls.
// Set the *Func fields to override the defaults: logins succeed with an upper-cased
// role matching the kind, refresh and logout succeed, check reports a valid session.
type FakeAuthAPI struct {
	LoginFunc   func(ctx context.Context, kind domain.UserType, creds domain.Credentials) (*domain.AuthResponse, error)
	RefreshFunc func(ctx context.Context) (*domain.AuthResponse, error)
	LogoutFunc  func(ctx context.Context) error
	CheckFunc   func(ctx context.Context) (*domain.CheckResponse, error)

	mu    sync.Mutex
	calls map[string]int
}

// NewFakeAuthAPI creates a fake with default behavior.
func NewFakeAuthAPI() *FakeAuthAPI {
	return &FakeAuthAPI{calls: make(map[string]int)}
}

// Calls returns how many times op ("login", "refresh", "logout", "check") was invoked.
func (f *FakeAuthAPI) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (f *FakeAuthAPI) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeAuthAPI) record(op string) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
	f.mu.Unlock()
}

func (f *FakeAuthAPI) Login(ctx context.Context, kind domain.UserType, creds domain.Credentials) (*domain.AuthResponse, error) {
	f.record("login")
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, kind, creds)
	}
	return &domain.AuthResponse{
		AccessToken: "access",
		Role:        strings.ToUpper(string(kind)),
		Type:        kind,
	}, nil
}

func (f *FakeAuthAPI) Refresh(ctx context.Context) (*domain.AuthResponse, error) {
	f.record("refresh")
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx)
	}
	return &domain.AuthResponse{AccessToken: "rotated"}, nil
}

func (f *FakeAuthAPI) Logout(ctx context.Context) error {
	f.record("logout")
	if f.LogoutFunc != nil {
		return f.LogoutFunc(ctx)
	}
	return nil
}

func (f *FakeAuthAPI) Check(ctx context.Context) (*domain.CheckResponse, error) {
	f.record("check")
	if f.CheckFunc != nil {
		return f.CheckFunc(ctx)
	}
	return &domain.CheckResponse{Valid: true}, nil
}
