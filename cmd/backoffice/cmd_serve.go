// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jappo-asso/backoffice/services/backoffice/server"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var serveListen string // Overrides the configured bind address

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// serveCmd runs the HTTP API.
//
// # Description
//
// Exposes the member map (with streamed enrichment progress) and the
// treasury report over HTTP, plus /health and /metrics. The geocode
// cache database stays open for the life of the process, so concurrent
// one-shot commands against the same cache path will fail to start.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the back-office HTTP API",
	Long: `Runs the back-office HTTP API.

Endpoints:
  GET /health                       Liveness probe
  GET /metrics                      Prometheus metrics
  GET /v1/members/locations         Member map with geocoded coordinates
  GET /v1/members/locations/stream  Same, with SSE lookup progress
  GET /v1/treasury/report           Aggregated treasury report

Examples:
  backoffice serve
  backoffice serve --listen :9090`,
	RunE: runServeCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"Bind address (overrides config)")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Server.Listen = serveListen
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

	srv, err := server.New(server.Config{
		Client:      pipe.client,
		Enricher:    pipe.enricher,
		PageSize:    cfg.Backend.PageSize,
		PageCeiling: cfg.Backend.PageCeiling,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
