// Package testutils holds test doubles shared across packages: an in-memory
// ports.AuthAPI and an HTTP fake of the remote API checked against its OpenAPI contract.
package testutils
