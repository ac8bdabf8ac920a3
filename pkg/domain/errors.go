package domain

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when the session could not be refreshed and the user must log in again.
var ErrSessionExpired = errors.New("session expired, please login again")

// ErrStorageCorruption is returned when the persisted identity slot cannot be parsed.
// Callers treat it as "no session"; it is never shown to the user.
var ErrStorageCorruption = errors.New("persisted identity is corrupt")

// ErrSlotNotFound is returned by a SlotStore when the requested key holds nothing.
var ErrSlotNotFound = errors.New("slot not found")

// AuthenticationError is returned by a rejected login (bad credentials, unverified account).
type AuthenticationError struct {
	Status  int
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// NetworkError wraps a transport failure (connection refused, DNS, timeout).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx answer from the API outside the login flow.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}
