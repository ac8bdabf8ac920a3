// Package redis provides Redis-backed adapters: a SlotStore, a pub/sub Broadcaster
// and a DistributedLocker, so several processes can share one login.
package redis
