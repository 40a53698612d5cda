// Package cache memoizes per-file analysis results, validated against a hash
// of the file's current normalized content.
package cache

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/gnana997/nextscope/pkg/util"
)

// ReadFunc loads the current content for a key.
type ReadFunc func(key string) ([]byte, error)

// NormalizeFunc maps content to the form that is hashed. Content that differs
// only in ways the analysis ignores should normalize to the same bytes. An
// error makes the cache hash the raw content instead.
type NormalizeFunc func(key string, content []byte) ([]byte, error)

// Config configures a Cache.
type Config struct {
	// MaxEntries bounds the number of cached keys; the least recently used
	// entry is evicted first. Default: 1000
	MaxEntries int

	// TTL is the maximum age of an entry. Zero disables expiry.
	// Expiry runs a background goroutine for the life of the process.
	TTL time.Duration

	// Read loads content. Default: util.ReadSource
	Read ReadFunc

	// Normalize prepares content for hashing. Default: none
	Normalize NormalizeFunc

	Logger *slog.Logger
}

// DefaultConfig returns the configuration used by the discovery commands.
func DefaultConfig() Config {
	return Config{
		MaxEntries: 1000,
		TTL:        10 * time.Minute,
	}
}

// Stats are cumulative counters for a Cache.
type Stats struct {
	Hits     int64 `json:"hits" yaml:"hits"`
	Misses   int64 `json:"misses" yaml:"misses"`
	Failures int64 `json:"failures" yaml:"failures"`
	Entries  int   `json:"entries" yaml:"entries"`
}

type entry[V any] struct {
	hash  uint64
	value V
}

// Cache stores one value per key together with the hash of the content it
// was computed from. A lookup whose content hash no longer matches computes
// again; failed computations are never stored.
//
// Cache is safe for concurrent use. Computations run outside any lock, so
// keys never wait on each other; two callers missing on the same key may both
// compute, and the last successful result is kept.
type Cache[V any] struct {
	entries   *expirable.LRU[string, entry[V]]
	read      ReadFunc
	normalize NormalizeFunc
	logger    *slog.Logger

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// New creates a cache. Zero config fields take their defaults.
func New[V any](config Config) *Cache[V] {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	if config.Read == nil {
		config.Read = util.ReadSource
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Cache[V]{
		entries:   expirable.NewLRU[string, entry[V]](config.MaxEntries, nil, config.TTL),
		read:      config.Read,
		normalize: config.Normalize,
		logger:    config.Logger,
	}
}

// GetOrCompute returns the value stored for key if the key's content is
// unchanged, otherwise it calls compute with the raw content and stores the
// result. Errors from compute are returned as *ComputeError and leave any
// existing entry untouched. Read errors drop the entry.
func (c *Cache[V]) GetOrCompute(key string, compute func(content []byte) (V, error)) (V, error) {
	var zero V

	content, err := c.read(key)
	if err != nil {
		c.entries.Remove(key)
		return zero, fmt.Errorf("failed to read %s: %w", key, err)
	}
	hash := c.hash(key, content)

	if e, ok := c.entries.Get(key); ok && e.hash == hash {
		c.hits.Add(1)
		return e.value, nil
	}
	c.misses.Add(1)

	value, err := compute(content)
	if err != nil {
		c.failures.Add(1)
		return zero, &ComputeError{Key: key, Err: err}
	}

	c.entries.Add(key, entry[V]{hash: hash, value: value})
	return value, nil
}

func (c *Cache[V]) hash(key string, content []byte) uint64 {
	if c.normalize == nil {
		return xxhash.Sum64(content)
	}
	normalized, err := c.normalize(key, content)
	if err != nil {
		c.logger.Debug("normalization failed, hashing raw content", "key", key, "error", err)
		return xxhash.Sum64(content)
	}
	return xxhash.Sum64(normalized)
}

// Invalidate drops the entry for key. It reports whether one existed.
func (c *Cache[V]) Invalidate(key string) bool {
	return c.entries.Remove(key)
}

// InvalidateAll drops every entry.
func (c *Cache[V]) InvalidateAll() {
	c.entries.Purge()
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Failures: c.failures.Load(),
		Entries:  c.entries.Len(),
	}
}

// ComputeError wraps a failed computation.
type ComputeError struct {
	Key string
	Err error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("compute failed for %s: %v", e.Key, e.Err)
}

func (e *ComputeError) Unwrap() error {
	return e.Err
}
