// Package kv abstracts the persisted key-value storage the session layer
// writes through. Backends differ by platform: an in-memory map for tests, a
// JSON file for local tooling, and browser cookies in the HTTP server.
package kv

// Store is a synchronous string key-value store. Implementations must be safe
// for use by a single writer; the session store is the sole writer of its
// keys and other components only read through its accessors.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set stores value under key, replacing any existing value.
	Set(key, value string)
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string)
}
