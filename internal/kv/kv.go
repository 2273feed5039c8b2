// Package kv provides the key-value persistence used by the quota ledger and
// the message store.
package kv

import "context"

// Entry is a single stored key/value pair.
type Entry struct {
	Key   string
	Value []byte
}

// Store is a string-keyed byte store with last-write-wins semantics per key.
// No transactional guarantees are assumed across keys.
type Store interface {
	// Get returns the value stored under key. The second return value reports
	// whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// List returns all entries whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Entry, error)

	// Close releases any underlying resources.
	Close() error
}
