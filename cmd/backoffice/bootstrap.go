// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/jappo-asso/backoffice/services/backoffice/client"
	"github.com/jappo-asso/backoffice/services/backoffice/config"
	"github.com/jappo-asso/backoffice/services/backoffice/enrich"
	"github.com/jappo-asso/backoffice/services/backoffice/geocache"
	storage "github.com/jappo-asso/backoffice/services/backoffice/storage/badger"
)

// pipeline bundles the collaborators every command needs.
type pipeline struct {
	client   *client.Client
	db       *badgerdb.DB
	cache    *geocache.Cache
	enricher *enrich.Enricher
}

// close releases the embedded database.
func (p *pipeline) close() {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			slog.Warn("closing cache database", "error", err)
		}
	}
}

// newPipeline builds the backend client, opens the durable cache and
// wires the enricher.
func newPipeline(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pipeline, error) {
	cl, err := client.New(client.Config{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Backend.Token,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	cachePath, err := expandHome(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("cache path: %w", err)
	}
	db, err := storage.Open(storage.DefaultConfig(cachePath))
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	cache := geocache.New(geocache.NewBadgerStore(db, geocache.DefaultSlot), logger)
	if err := cache.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load geocode cache: %w", err)
	}
	logger.Info("geocode cache loaded", "entries", cache.Len())

	geocoder := enrich.NewNominatim(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, nil)
	enricher := enrich.New(cache, geocoder, &enrich.Options{
		Interval: cfg.Geocoder.Interval(),
		Logger:   logger,
	})

	return &pipeline{client: cl, db: db, cache: cache, enricher: enricher}, nil
}

// expandHome resolves a leading "~" against the user's home directory.
func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
