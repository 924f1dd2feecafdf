// Package cache provides a TTL-bounded in-memory cache, optionally
// persisted to disk, and an HTTP client that serves repeat requests from it.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const (
	fileName     = "tzq-cache.gob"
	saveInterval = 15 * time.Minute
	maxEntries   = 10_000
)

// Entry is a cached value with its absolute expiry.
type Entry struct {
	ExpiresAt time.Time
	Data      []byte
}

// Cache is a TTL cache keyed by opaque strings (see Key).
type Cache struct {
	store      *otter.Cache[string, Entry]
	logger     *slog.Logger
	now        func() time.Time
	saveCancel context.CancelFunc
	dir        string
	ttl        time.Duration
	saveWg     sync.WaitGroup
	mu         sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithDir persists entries under dir: they are loaded on New, saved
// periodically and saved again on Close.
func WithDir(dir string) Option {
	return func(c *Cache) {
		c.dir = dir
	}
}

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache whose entries live for ttl.
func New(ctx context.Context, ttl time.Duration, opts ...Option) (*Cache, error) {
	c := &Cache{
		ttl:    ttl,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.store = otter.Must(&otter.Options[string, Entry]{
		MaximumSize:      maxEntries,
		ExpiryCalculator: otter.ExpiryWriting[string, Entry](ttl),
	})

	if c.dir == "" {
		return c, nil
	}

	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if err := c.loadFromDisk(); err != nil {
		c.logger.Warn("failed to load cache from disk", "error", err)
	}
	c.logger.Debug("cache initialized", "dir", c.dir, "entries", c.store.EstimatedSize())
	c.startPeriodicSave(ctx)
	return c, nil
}

// Key derives a cache key from its parts.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the value stored under key, if present and unexpired.
func (c *Cache) Get(key string) ([]byte, bool) {
	entry, found := c.store.GetIfPresent(key)
	if !found {
		c.logger.Debug("cache miss", "key", key, "reason", "not_found")
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		c.logger.Debug("cache miss", "key", key, "reason", "expired", "expired_at", entry.ExpiresAt)
		c.store.Invalidate(key)
		return nil, false
	}
	return entry.Data, true
}

// Set stores data under key for the cache's TTL.
func (c *Cache) Set(key string, data []byte) {
	entry := Entry{Data: data, ExpiresAt: c.now().Add(c.ttl)}
	c.store.Set(key, entry)
	c.logger.Debug("cache set", "key", key, "expires_at", entry.ExpiresAt, "size", len(data))
}

// Len returns the approximate number of entries.
func (c *Cache) Len() int {
	return c.store.EstimatedSize()
}

// Close stops periodic saving and writes a final snapshot when persistent.
func (c *Cache) Close() error {
	if c.dir == "" {
		return nil
	}
	if c.saveCancel != nil {
		c.saveCancel()
	}
	c.saveWg.Wait()

	if err := c.saveToDisk(); err != nil {
		return fmt.Errorf("final cache save: %w", err)
	}
	return nil
}

func (c *Cache) path() string {
	return filepath.Join(c.dir, fileName)
}

func (c *Cache) loadFromDisk() error {
	file, err := os.Open(c.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			c.logger.Debug("failed to close cache file", "error", closeErr)
		}
	}()

	var entries map[string]Entry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := c.now()
	valid := 0
	for key, entry := range entries {
		if now.Before(entry.ExpiresAt) {
			c.store.Set(key, entry)
			valid++
		}
	}
	c.logger.Debug("loaded cache from disk", "path", c.path(), "total", len(entries), "valid", valid)
	return nil
}

func (c *Cache) saveToDisk() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make(map[string]Entry)
	now := c.now()
	for key, entry := range c.store.All() {
		if now.Before(entry.ExpiresAt) {
			entries[key] = entry
		}
	}

	tmp, err := os.CreateTemp(c.dir, fileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tmp.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			c.logger.Debug("failed to remove temp file", "error", removeErr)
		}
	}()

	if err := gob.NewEncoder(tmp).Encode(entries); err != nil {
		_ = tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path()); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}

	c.logger.Debug("cache saved to disk", "entries", len(entries), "path", c.path())
	return nil
}

func (c *Cache) startPeriodicSave(ctx context.Context) {
	saveCtx, cancel := context.WithCancel(ctx)
	c.saveCancel = cancel

	c.saveWg.Add(1)
	go func() {
		defer c.saveWg.Done()

		ticker := time.NewTicker(saveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := c.saveToDisk(); err != nil {
					c.logger.Error("periodic cache save failed", "error", err)
				}
			}
		}
	}()
}
