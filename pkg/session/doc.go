/*
Package session implements the client-side session store.

A Manager holds the identity of whoever is logged in, mirrors it to a SlotStore,
and keeps every other Manager sharing that slot up to date through a Broadcaster
(the equivalent of browser tabs reacting to a storage event). Concurrent refreshes
are coalesced: one network call per burst, one shared outcome.

There is no package-level instance; construct a Manager and inject it where needed.
*/
package session
