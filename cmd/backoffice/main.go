// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command backoffice is the Jappo association back-office: an HTTP API
// and a small CLI over the membership backend, the geocode enrichment
// pipeline and the treasury ledger.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jappo-asso/backoffice/pkg/logging"
	"github.com/jappo-asso/backoffice/services/backoffice/config"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	configPath string // --config: optional YAML file
	logLevel   string // --log-level: overrides the configured level
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Jappo association back-office",
	Long: `Back-office tooling for the Jappo association.

Drains the membership backend's paged collections, enriches member
addresses with geocoded coordinates (cached durably between runs), and
aggregates the treasury ledger into dashboard-ready reports.

Examples:
  backoffice serve                       # Run the HTTP API
  backoffice enrich                      # One-shot enrichment pass
  backoffice report --json               # Treasury report to stdout
  backoffice report --periode 2025-02    # Filtered to one month`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML config file (defaults + JAPPO_* env otherwise)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(reportCmd)
}

// =============================================================================
// SHARED BOOTSTRAP
// =============================================================================

// loadConfig resolves configuration and applies CLI overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// initLogging builds the process logger and installs it as the slog
// default. The returned closer flushes the log file, when one is
// configured.
func initLogging(cfg config.Config) (*slog.Logger, func() error, error) {
	logger, closer, err := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		Service: "backoffice",
		JSON:    cfg.Logging.JSON,
		LogDir:  cfg.Logging.Dir,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}
	slog.SetDefault(logger)
	return logger, closer, nil
}
