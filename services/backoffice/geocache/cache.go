// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package geocache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Entry is one resolved coordinate plus the display label the geocoder
// returned for it.
type Entry struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
}

// Store is the durable slot holding the serialized cache blob.
//
// Read returns (nil, nil) on first use, before anything was ever
// written. Write replaces the blob atomically from the caller's
// perspective.
type Store interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, blob []byte) error
}

// Cache is the in-memory view of the durable geocode mapping.
//
// There is a single writer (the enrichment scheduler) and the full
// snapshot is rewritten on every Put, so no discipline beyond the
// internal mutex is needed. Entries are never evicted and never
// re-resolved; a stale coordinate lives until the backing store is
// cleared externally.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	store   Store
	logger  *slog.Logger
}

// New creates a cache over the given durable store. Call Load before
// first use to pull in previously persisted entries.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]Entry),
		store:   store,
		logger:  logger,
	}
}

// Load reads the persisted blob into memory.
//
// A missing, empty, or corrupt blob is never fatal: the cache resets to
// empty, previously cached entries are lost, and a warning is logged.
// Load always returns nil today; the error return is kept so callers
// don't change if a fatal mode ever appears.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)

	blob, err := c.store.Read(ctx)
	if err != nil {
		c.logger.Warn("geocode cache unreadable, starting empty", "error", err)
		return nil
	}
	if len(blob) == 0 {
		return nil
	}

	var entries map[string]Entry
	if err := json.Unmarshal(blob, &entries); err != nil {
		c.logger.Warn("geocode cache corrupt, starting empty", "error", err)
		return nil
	}

	c.entries = entries
	c.logger.Debug("geocode cache loaded", "entries", len(entries))
	return nil
}

// Get returns the entry for a key, if cached.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Put stores an entry and persists the full snapshot write-through.
//
// Re-putting an identical entry is a no-op: the mapping is unchanged
// and no write is issued.
func (c *Cache) Put(ctx context.Context, key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok && existing == entry {
		return nil
	}

	c.entries[key] = entry
	return c.persistLocked(ctx)
}

// Persist writes the current snapshot to the durable store.
func (c *Cache) Persist(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistLocked(ctx)
}

func (c *Cache) persistLocked(ctx context.Context) error {
	blob, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("marshal geocode cache: %w", err)
	}
	if err := c.store.Write(ctx, blob); err != nil {
		return fmt.Errorf("persist geocode cache: %w", err)
	}
	return nil
}
