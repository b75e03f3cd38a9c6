// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jappo-asso/backoffice/services/backoffice/collector"
	"github.com/jappo-asso/backoffice/services/backoffice/enrich"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var enrichJSONOutput bool // Emit the final result as JSON

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// enrichCmd runs one enrichment pass and exits.
//
// # Description
//
// Drains the member collection, resolves every address fingerprint the
// cache does not yet hold (one paced lookup at a time), and prints a
// summary. Each resolved entry is persisted before the next lookup
// starts, so a pass interrupted with Ctrl-C keeps everything it
// resolved so far.
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run a one-shot geocode enrichment pass",
	Long: `Runs a one-shot geocode enrichment pass over the member collection.

Lookups are strictly sequential and paced to respect the geocoding
service's rate policy; progress is printed per lookup. Interrupting the
pass keeps every coordinate resolved so far.

Examples:
  backoffice enrich
  backoffice enrich --json`,
	RunE: runEnrichCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	enrichCmd.Flags().BoolVar(&enrichJSONOutput, "json", false,
		"Print the full result as JSON")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runEnrichCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLogs, err := initLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipe, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pipe.close()

	members, err := collector.CollectAll(ctx, pipe.client.MemberPages(cfg.Backend.PageSize),
		cfg.Backend.PageSize, &collector.Options{
			PageCeiling: cfg.Backend.PageCeiling,
			Logger:      logger,
		})
	if err != nil {
		return fmt.Errorf("drain members: %w", err)
	}
	fmt.Fprintf(os.Stderr, "loaded %d members, %d coordinates cached\n", len(members), pipe.cache.Len())

	result, err := pipe.enricher.Run(ctx, members, func(p enrich.Progress) {
		fmt.Fprintf(os.Stderr, "geocoding %d/%d\n", p.Done, p.Total)
	})
	if err != nil {
		// A cancelled pass already persisted everything it resolved.
		return fmt.Errorf("enrichment: %w", err)
	}

	if enrichJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("enrichment complete: %d located, %d resolved this pass, %d without address\n",
		len(result.Locations), result.Resolved, result.Unkeyed)
	return nil
}
