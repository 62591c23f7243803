// Package registrycache is the federation cache for remote-loader
// discovery results: the "rpc" loader tag resolves a remote node's
// modules over gRPC, and what it discovers is expensive enough (a
// network round trip) to warrant a TTL'd cache in front of it, plus a
// durable catalog so a restarted process doesn't start cold.
package registrycache

import (
	"context"
	"time"
)

// Entry is one discovered remote handle's metadata: which loader tag and
// remote module name it came from, and its introspection document
// (the JSON bytes the remote node's discovery returned, stored as is).
type Entry struct {
	Tag      string
	Name     string
	Inspect  []byte
	CachedAt time.Time
}

// Cache is the TTL'd front cache a loader backend consults before paying
// for a remote discovery round trip.
type Cache interface {
	// Get retrieves a cached entry by key. Returns nil, nil if the key is
	// absent or has expired.
	Get(ctx context.Context, key string) (*Entry, error)
	// Set stores an entry with the given TTL.
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
	// Delete removes a cached entry.
	Delete(ctx context.Context, key string) error
}

// Catalog is the durable store behind the cache: entries survive process
// restarts, so a cold cache doesn't mean a cold catalog.
type Catalog interface {
	Save(ctx context.Context, entry *Entry) error
	Load(ctx context.Context, key string) (*Entry, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, tag string) ([]*Entry, error)
}

// Key derives the cache/catalog key for a tag+name pair, matching the
// dotted "tag.name" shape dispatch resolution already uses for handles.
func Key(tag, name string) string { return tag + "." + name }
