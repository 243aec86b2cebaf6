// Package cache stores rendered artifacts between runs.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for shared deployments of the HTTP server, and [NullCache] when caching
// is disabled. Keys are produced by a [Keyer] so that callers never build
// them by hand.
package cache

import (
	"context"
	"time"
)

// ArtifactTTL is how long rendered artifacts stay cached.
const ArtifactTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the stored value and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the backend.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey returns the key for the artifact rendered from a DOT
	// source with the given options.
	ArtifactKey(dot string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns "artifact:<sha256>" over the DOT source and options.
func (DefaultKeyer) ArtifactKey(dot string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", dot, opts)
}

// Clearer is implemented by backends that can drop all of their entries.
type Clearer interface {
	// Clear removes every entry and reports how many were removed.
	Clear(ctx context.Context) (int, error)
}
