// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config provides configuration loading for the back-office
// service.
//
// Configuration resolves in three layers, later layers winning:
// embedded defaults, an optional YAML file, then JAPPO_* environment
// variables. Validation runs once after all layers are applied.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize is the maximum allowed YAML file size (1MB).
// Prevents memory issues from a mistaken path.
const MaxConfigFileSize = 1024 * 1024

// minLookupInterval is the floor of the geocoder pacing contract. The
// public service's usage policy requires at least one second between
// requests.
const minLookupInterval = time.Second

// Config is the full service configuration.
type Config struct {
	Backend  Backend  `yaml:"backend"`
	Geocoder Geocoder `yaml:"geocoder"`
	Cache    Cache    `yaml:"cache"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

// Backend configures access to the association REST API.
type Backend struct {
	// BaseURL is the backend root. Required.
	BaseURL string `yaml:"base_url"`

	// Token is the bearer token attached to every request.
	Token string `yaml:"token"`

	// PageSize is the per-page record count requested when draining
	// collections.
	PageSize int `yaml:"page_size"`

	// PageCeiling bounds a single drain against a source that never
	// signals completion.
	PageCeiling int `yaml:"page_ceiling"`
}

// Geocoder configures the external lookup service.
type Geocoder struct {
	// BaseURL defaults to the public Nominatim instance.
	BaseURL string `yaml:"base_url"`

	// UserAgent identifies the deployment, as the usage policy
	// requires.
	UserAgent string `yaml:"user_agent"`

	// IntervalMS is the spacing between lookups in milliseconds. Must
	// stay at or above 1000.
	IntervalMS int `yaml:"interval_ms"`
}

// Interval returns the lookup spacing as a duration.
func (g Geocoder) Interval() time.Duration {
	return time.Duration(g.IntervalMS) * time.Millisecond
}

// Cache configures the durable geocode cache.
type Cache struct {
	// Path is the BadgerDB directory.
	Path string `yaml:"path"`
}

// Server configures the HTTP API.
type Server struct {
	// Listen is the bind address, e.g. ":8080".
	Listen string `yaml:"listen"`
}

// Logging configures pkg/logging.
type Logging struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// Default returns the embedded defaults. Backend.BaseURL is left empty
// and must come from the file or the environment.
func Default() Config {
	return Config{
		Backend: Backend{
			PageSize:    50,
			PageCeiling: 10,
		},
		Geocoder: Geocoder{
			UserAgent:  "jappo-backoffice/1.0 (tresorerie@jappo-asso.org)",
			IntervalMS: 1100,
		},
		Cache: Cache{
			Path: "~/.jappo/geocache",
		},
		Server: Server{
			Listen: ":8080",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load resolves the configuration from defaults, an optional YAML file,
// and the environment, then validates it. An empty path skips the file
// layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		if info.Size() > MaxConfigFileSize {
			return Config{}, fmt.Errorf("config file %s exceeds %d bytes", path, MaxConfigFileSize)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays JAPPO_* environment variables.
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("JAPPO_BACKEND_URL", &cfg.Backend.BaseURL)
	setString("JAPPO_BACKEND_TOKEN", &cfg.Backend.Token)
	setInt("JAPPO_BACKEND_PAGE_SIZE", &cfg.Backend.PageSize)
	setString("JAPPO_GEOCODER_URL", &cfg.Geocoder.BaseURL)
	setString("JAPPO_GEOCODER_USER_AGENT", &cfg.Geocoder.UserAgent)
	setInt("JAPPO_GEOCODER_INTERVAL_MS", &cfg.Geocoder.IntervalMS)
	setString("JAPPO_CACHE_PATH", &cfg.Cache.Path)
	setString("JAPPO_LISTEN", &cfg.Server.Listen)
	setString("JAPPO_LOG_LEVEL", &cfg.Logging.Level)
	setString("JAPPO_LOG_DIR", &cfg.Logging.Dir)
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required (or JAPPO_BACKEND_URL)")
	}
	if c.Backend.PageSize <= 0 {
		return fmt.Errorf("backend.page_size must be positive, got %d", c.Backend.PageSize)
	}
	if c.Backend.PageCeiling <= 0 {
		return fmt.Errorf("backend.page_ceiling must be positive, got %d", c.Backend.PageCeiling)
	}
	if c.Geocoder.Interval() < minLookupInterval {
		return fmt.Errorf("geocoder.interval_ms must be at least %d, got %d",
			minLookupInterval.Milliseconds(), c.Geocoder.IntervalMS)
	}
	if c.Geocoder.UserAgent == "" {
		return fmt.Errorf("geocoder.user_agent is required")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required")
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	return nil
}
