// Package store is the small persistent key-value store shared by the
// foreground agent and the background delivery worker.
package store

import "context"

// Namespaces. Each is independently creatable on first use.
const (
	NamespaceIdentity   = "identity"
	NamespacePreference = "preference"
)

// DurableStore is the cross-process key-value contract. Writes from one
// process become visible to reads from the other on the next read; no
// stricter synchronization is guaranteed or assumed.
type DurableStore interface {
	// Get returns the stored value and whether it was present.
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	// Put replaces the whole record (last-writer-wins).
	Put(ctx context.Context, namespace, key, value string) error
}
