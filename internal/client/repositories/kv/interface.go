// Package kv implements the client's local durable key/value store.
// Session-state singletons (active clock, active task, active timesheet),
// cached site configuration and question sets are persisted here as JSON
// blobs under logical keys.
package kv

import "context"

// Store is the durable key/value contract.
//
// Get returns (nil, nil) when the key is absent; callers treat read
// failures and malformed values as "no data" rather than propagating them.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
