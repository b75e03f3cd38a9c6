// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package server exposes the back-office HTTP API: the enriched member
// map and the treasury report.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/jappo-asso/backoffice/pkg/validation"
	"github.com/jappo-asso/backoffice/services/backoffice/client"
	"github.com/jappo-asso/backoffice/services/backoffice/collector"
	"github.com/jappo-asso/backoffice/services/backoffice/enrich"
	"github.com/jappo-asso/backoffice/services/backoffice/ledger"
	"github.com/jappo-asso/backoffice/services/backoffice/model"
)

var tracer = otel.Tracer("backoffice.server")

// Config holds the server's collaborators and tuning.
type Config struct {
	// Client reads the association backend. Required.
	Client *client.Client

	// Enricher resolves member coordinates. Required for the location
	// endpoints.
	Enricher *enrich.Enricher

	// PageSize is the per-page record count used when draining
	// collections. Must be positive.
	PageSize int

	// PageCeiling bounds each drain. Zero selects the collector
	// default.
	PageCeiling int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server wires the HTTP routes to the collector, enricher and ledger.
//
// Thread Safety: safe for concurrent requests. Enrichment exclusivity
// is enforced by the Enricher itself.
type Server struct {
	client   *client.Client
	enricher *enrich.Enricher
	pageSize int
	ceiling  int
	logger   *slog.Logger
}

// New builds a Server from its configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, errors.New("backend client is required")
	}
	if cfg.PageSize <= 0 {
		return nil, errors.New("page size must be positive")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		client:   cfg.Client,
		enricher: cfg.Enricher,
		pageSize: cfg.PageSize,
		ceiling:  cfg.PageCeiling,
		logger:   logger,
	}, nil
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "jappo-backoffice"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/members/locations", s.handleMemberLocations)
		v1.GET("/members/locations/stream", s.handleMemberLocationsStream)
		v1.GET("/treasury/report", s.handleTreasuryReport)
	}
	return router
}

func (s *Server) collectOpts() *collector.Options {
	return &collector.Options{
		PageCeiling: s.ceiling,
		Logger:      s.logger,
	}
}

// locationsResponse is the payload for both location endpoints.
type locationsResponse struct {
	Locations []enrich.MemberLocation `json:"locations"`
	Resolved  int                     `json:"resolved"`
	Unkeyed   int                     `json:"unkeyed"`
	Missing   int                     `json:"missing"`
}

// handleMemberLocations drains the member collection, runs an
// enrichment pass and returns every locatable member with coordinates.
func (s *Server) handleMemberLocations(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "members.locations")
	defer span.End()

	members, err := collector.CollectAll(ctx, s.client.MemberPages(s.pageSize), s.pageSize, s.collectOpts())
	if err != nil {
		s.logger.Error("member drain failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable", "details": err.Error()})
		return
	}
	span.SetAttributes(attribute.Int("members.count", len(members)))

	result, err := s.enricher.Run(ctx, members, nil)
	if err != nil {
		if errors.Is(err, enrich.ErrEnrichmentInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "enrichment already running"})
			return
		}
		s.logger.Error("enrichment failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enrichment failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, locationsResponse{
		Locations: result.Locations,
		Resolved:  result.Resolved,
		Unkeyed:   result.Unkeyed,
		Missing:   result.Missing,
	})
}

// streamEvent is one SSE frame: either a progress tick, the final
// payload, or a terminal error.
type streamEvent struct {
	name string
	data any
}

// handleMemberLocationsStream runs the same pass as
// handleMemberLocations but reports lookup progress as server-sent
// events before the final payload. Event names: "progress", "result",
// "error".
func (s *Server) handleMemberLocationsStream(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "members.locations.stream")
	defer span.End()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	events := make(chan streamEvent, 8)
	go func() {
		defer close(events)

		members, err := collector.CollectAll(ctx, s.client.MemberPages(s.pageSize), s.pageSize, s.collectOpts())
		if err != nil {
			events <- streamEvent{name: "error", data: gin.H{"error": err.Error()}}
			return
		}

		result, err := s.enricher.Run(ctx, members, func(p enrich.Progress) {
			select {
			case events <- streamEvent{name: "progress", data: gin.H{"done": p.Done, "total": p.Total}}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			events <- streamEvent{name: "error", data: gin.H{"error": err.Error()}}
			return
		}
		events <- streamEvent{name: "result", data: locationsResponse{
			Locations: result.Locations,
			Resolved:  result.Resolved,
			Unkeyed:   result.Unkeyed,
			Missing:   result.Missing,
		}}
	}()

	// Client disconnects cancel ctx, which aborts the run between
	// lookups and closes the channel.
	for ev := range events {
		c.SSEvent(ev.name, ev.data)
		c.Writer.Flush()
	}
}

// parseFilters extracts ledger filters from the request's query
// parameters: periode (YYYY-MM), annee, statut and q.
func parseFilters(c *gin.Context) (ledger.Filters, error) {
	var f ledger.Filters

	if annee := c.Query("annee"); annee != "" {
		year, _, err := validation.ParsePeriod(annee + "-01")
		if err != nil {
			return f, errors.New("invalid annee, expected YYYY")
		}
		f.Year = year
	}
	if periode := c.Query("periode"); periode != "" {
		year, month, err := validation.ParsePeriod(periode)
		if err != nil {
			return f, err
		}
		f.Year = year
		f.Month = month
	}

	statut := c.Query("statut")
	if err := validation.ValidateStatus(statut); err != nil {
		return f, err
	}
	f.Status = statut

	q, err := validation.SanitizeQuery(c.Query("q"))
	if err != nil {
		return f, err
	}
	f.Query = q

	return f, nil
}

// handleTreasuryReport drains the three financial collections in
// parallel, applies the requested filters and returns the aggregated
// report.
func (s *Server) handleTreasuryReport(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "treasury.report")
	defer span.End()

	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return
	}

	var (
		dues     []model.Due
		payments []model.Payment
		expenses []model.Expense
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dues, err = collector.CollectAll(gctx, s.client.DuePages(s.pageSize), s.pageSize, s.collectOpts())
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = collector.CollectAll(gctx, s.client.PaymentPages(s.pageSize), s.pageSize, s.collectOpts())
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = collector.CollectAll(gctx, s.client.ExpensePages(s.pageSize), s.pageSize, s.collectOpts())
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("financial drain failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable", "details": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.Int("dues.count", len(dues)),
		attribute.Int("payments.count", len(payments)),
		attribute.Int("expenses.count", len(expenses)),
	)

	report := ledger.Aggregate(
		ledger.FilterDues(dues, filters),
		ledger.FilterPayments(payments, filters),
		ledger.FilterExpenses(expenses, filters),
	)
	c.JSON(http.StatusOK, report)
}
