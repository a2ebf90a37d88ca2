// Package cache provides namespaced JSON caches. A namespace groups keys that
// are invalidated together, e.g. every list query after a mutation.
package cache

import (
	"context"
	"time"
)

type Store interface {
	// Get decodes the cached value into dst and reports whether it was found.
	Get(ctx context.Context, namespace, key string, dst any) (bool, error)
	Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error
	// Version returns the current generation of the namespace. Take it before
	// reading the source of a value and hand it to SetAt.
	Version(ctx context.Context, namespace string) (string, error)
	// SetAt stores the value only for the given generation. A value computed
	// before an Invalidate is never visible afterwards.
	SetAt(ctx context.Context, namespace, version, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
	// Invalidate drops every key of the namespace.
	Invalidate(ctx context.Context, namespace string) error
}
