// Package kvstore is the on-device durable key-value storage behind
// the persisted session, the query cache snapshot and the per-user
// assistant history. Two adapters are provided: a filesystem store
// (afero, so tests run against an in-memory fs) and a SQLite store,
// which is what mobile platforms actually persist to.
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// Store is the device storage interface. Writes must be durable by
// the time Set returns; callers treat them as fire-and-forget but the
// next Get of the same key sees the written value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Keys returns every stored key with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// Fixed key namespaces used across the app.
const (
	KeySession    = "clinix/session"
	KeyQueryCache = "clinix/query-cache"

	aiHistoryPrefix = "clinix/ai-history/"
)

// AIHistoryKey namespaces the assistant conversation blob by identity.
func AIHistoryKey(userID, role string) string {
	return aiHistoryPrefix + userID + "/" + role
}

// AIHistoryPrefixFor returns the prefix covering every role's history
// for one user, for teardown on sign-out.
func AIHistoryPrefixFor(userID string) string {
	return aiHistoryPrefix + userID + "/"
}
