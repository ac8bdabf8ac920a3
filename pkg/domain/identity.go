package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UserType distinguishes the two login surfaces of the API.
type UserType string

const (
	UserTypeAdmin UserType = "admin"
	UserTypeUser  UserType = "user"
)

// ParseUserType normalizes a user supplied kind ("admin", "USER", ...).
func ParseUserType(s string) (UserType, error) {
	switch UserType(strings.ToLower(strings.TrimSpace(s))) {
	case UserTypeAdmin:
		return UserTypeAdmin, nil
	case UserTypeUser:
		return UserTypeUser, nil
	default:
		return "", fmt.Errorf("unknown user type %q (want admin or user)", s)
	}
}

// Identity is the client-side record of who is logged in.
// A nil *Identity means the client considers itself logged out.
type Identity struct {
	ID   string   `json:"id"`
	Role string   `json:"role"`
	Type UserType `json:"type"`
}

// Clone returns a copy safe to hand out to callers.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Equal reports whether both identities describe the same login (nil-safe).
func (i *Identity) Equal(other *Identity) bool {
	if i == nil || other == nil {
		return i == nil && other == nil
	}
	return *i == *other
}

// EncodeIdentity serializes an identity for the persisted slot.
func EncodeIdentity(id *Identity) ([]byte, error) {
	if id == nil {
		return nil, fmt.Errorf("cannot encode empty identity")
	}
	return json.Marshal(id)
}

// DecodeIdentity parses the persisted slot.
// Any malformed content is reported as ErrStorageCorruption.
func DecodeIdentity(data []byte) (*Identity, error) {
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorruption, err)
	}
	if id.Type != UserTypeAdmin && id.Type != UserTypeUser {
		return nil, fmt.Errorf("%w: unexpected user type %q", ErrStorageCorruption, id.Type)
	}
	return &id, nil
}
