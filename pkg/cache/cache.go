// Package cache stores rendered diagram artifacts keyed by content hash.
//
// Rendering a diagram through Graphviz is the slowest thing erkit does, and
// the DOT source fully determines the output. The CLI and the HTTP API
// therefore key SVG/PDF/PNG artifacts by [Hash] of the DOT source plus the
// render options (see [Keyer]) and consult a [Cache] before rendering.
//
//	c, _ := cache.NewFileCache(dir)
//	key := cache.NewDefaultKeyer().RenderKey(cache.Hash([]byte(src)), cache.RenderKeyOpts{Format: "svg"})
//	if svg, ok, _ := c.Get(ctx, key); ok {
//	    return svg
//	}
//
// [NullCache] disables caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. ok is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// RenderKeyOpts are the render options that change an artifact's bytes.
type RenderKeyOpts struct {
	Format   string  `json:"format"`
	Scale    float64 `json:"scale,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
	Free     bool    `json:"free,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// RenderKey returns the key of an artifact rendered from DOT source
	// with the given content hash.
	RenderKey(dotHash string, opts RenderKeyOpts) string
}

// DefaultKeyer produces "render:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(dotHash string, opts RenderKeyOpts) string {
	return hashKey("render", dotHash, opts)
}
