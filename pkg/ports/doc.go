/*
Package ports defines the driven ports (interfaces) of warden.

These interfaces decouple the session manager from storage, change propagation
and the remote API, so the same manager runs in a CLI, a daemon or a test.

# Key Interfaces

  - SlotStore: persists the serialized identity (memory, file, Redis).
  - Broadcaster: announces slot changes to other contexts sharing the slot.
  - AuthAPI: the login/refresh/logout/check endpoints.
  - DistributedLocker: serializes token refresh across processes.
*/
package ports
