// Package api is the HTTP side of warden.
//
// Transport talks to the remote user-management API: it owns the base URL, the
// cookie jar, the anti-forgery header and the mapping of HTTP failures to domain
// errors. It implements ports.AuthAPI so a session.Manager can drive it.
//
// Client layers the session policy on top: a valid session before every mutating
// request, and one refresh-and-retry on 401.
package api
