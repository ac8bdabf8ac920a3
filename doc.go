/*
Package warden is a client for a cookie-authenticated user-management API.

It keeps track of who is logged in on the client side and keeps that knowledge
consistent across every process (or "tab") sharing the same state, while the
tokens themselves stay in server-set cookies.

# Concept

A Client bundles two collaborators:

  - the session store (pkg/session), which owns the identity (role and account
    type), mirrors it to one persisted slot, coalesces concurrent token refreshes
    into a single network call and notifies listeners of every change;
  - the API client (pkg/api), which attaches the anti-forgery header to mutating
    requests and, on an authorization failure, refreshes once and retries once.

Storage and cross-process notification are ports (pkg/ports) with memory, file
and Redis adapters, so the same session can be shared by goroutines, by
processes on one machine, or by processes on different machines.

# Usage

	client, err := warden.New(
		warden.WithBaseURL("http://localhost:5000/api"),
		warden.WithStore(file.New(".warden")),
		warden.WithBroadcaster(file.NewBroadcaster(".warden")),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := client.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	if _, err := client.Login(ctx, "admin@example.com", "secret", domain.UserTypeAdmin); err != nil {
		log.Fatal(err)
	}
	users, err := client.API.ListUsers(ctx)
*/
package warden
