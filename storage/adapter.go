package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// Adapter is a namespaced key-value store.
type Adapter interface {
	// Set stores value under namespace/key, replacing any previous value.
	Set(ctx context.Context, namespace, key string, value []byte) error

	// Get returns the value under namespace/key or ErrNotFound.
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Delete removes namespace/key. Missing keys are not an error.
	Delete(ctx context.Context, namespace, key string) error

	// Clear removes every key of every namespace owned by the adapter.
	Clear(ctx context.Context) error

	// ClearNamespace removes every key of one namespace.
	ClearNamespace(ctx context.Context, namespace string) error

	// Keys lists the keys of one namespace in ascending order.
	Keys(ctx context.Context, namespace string) ([]string, error)
}

// Closer is implemented by adapters that hold connections.
type Closer interface {
	Close() error
}

// IsNotFound reports whether err means a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// KeySeparator joins namespace and key in flat key spaces.
const KeySeparator = ":"

// JoinKey builds "prefix:namespace:key", omitting an empty prefix.
func JoinKey(prefix, namespace, key string) string {
	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, namespace, key)
	return strings.Join(parts, KeySeparator)
}

// NamespacePrefix is the flat-key prefix shared by all keys of a namespace.
func NamespacePrefix(prefix, namespace string) string {
	return JoinKey(prefix, namespace, "")
}
