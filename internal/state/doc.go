// Package state persists per-session conversation state between turns.
//
// Two stores are provided: an in-process map with idle expiry (MemoryStore)
// and a Redis-backed store (RedisStore) for deployments that restart or run
// more than one bot process against the same Signal number. Both keep a
// session for a fixed idle TTL after its last write.
package state
