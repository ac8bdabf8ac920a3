package middleware

import "github.com/aretw0/warden/pkg/ports"

// Middleware allows wrapping a SlotStore to add behavior.
type Middleware func(ports.SlotStore) ports.SlotStore

// Chain applies middlewares so the first one listed is the outermost.
func Chain(store ports.SlotStore, mws ...Middleware) ports.SlotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
