/*
Package domain contains the core types shared by every warden component.

It is kept free of I/O: adapters, the session manager and the API client all
exchange these values.

# Key Entities

  - Identity: who is logged in (role + user type); nil means logged out.
  - AuthEvent / Hooks: observability callbacks fired by the session manager.
  - AuthenticationError, NetworkError, APIError, ErrSessionExpired: the error kinds
    surfaced to callers.
  - User, Profile, CreateUserRequest, UpdateUserRequest: admin and dashboard DTOs.
*/
package domain
