// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package enrich resolves member addresses into map coordinates.
//
// The external geocoding service is the scarce resource here: it is
// rate-limited per client, and the association shares one quota. The
// scheduler therefore never parallelizes lookups. It resolves the
// cache-missing subset of a member batch strictly one at a time, paced
// by a token-bucket limiter, persisting each result the moment it
// arrives so a crash mid-batch loses at most the in-flight entry.
//
// # Cancellation
//
// Cancellation is cooperative: the context is observed between items
// (and while waiting on the limiter), never mid-lookup. A lookup that
// was already dispatched completes and persists its cache write before
// the run returns.
//
// # Concurrency
//
// A run is a single in-flight long-running operation with observable
// progress, not a worker pool. Run refuses to start while another run
// is active.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/jappo-asso/backoffice/services/backoffice/geocache"
	"github.com/jappo-asso/backoffice/services/backoffice/model"
)

// DefaultInterval is the spacing between consecutive lookup dispatches.
// The upstream quota contract requires at least one second; the extra
// margin absorbs client-side clock jitter.
const DefaultInterval = 1100 * time.Millisecond

var tracer = otel.Tracer("backoffice.enrich")

// Geocoder resolves a free-text address to a coordinate.
//
// The boolean result is false when the service answered but found
// nothing; an error means the lookup itself failed. Both outcomes are
// non-fatal to an enrichment pass.
type Geocoder interface {
	Lookup(ctx context.Context, street, city, country string) (geocache.Entry, bool, error)
}

// Progress reports how far through the missing set a run is.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// ProgressFunc receives one event after each missing-set item is
// handled, success or failure. It runs on the scheduler goroutine, so
// it must not block for long or it delays pacing.
type ProgressFunc func(Progress)

// MemberLocation is a member record joined with its resolved
// coordinate.
type MemberLocation struct {
	MemberID string  `json:"member_id"`
	Nom      string  `json:"nom"`
	Prenom   string  `json:"prenom"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Label    string  `json:"label"`
}

// Result summarizes one enrichment pass.
type Result struct {
	// Locations holds every keyed input member whose fingerprint
	// resolves in the cache after the pass, in input order. It does not
	// distinguish entries resolved this pass from previously cached
	// ones.
	Locations []MemberLocation `json:"locations"`

	// Missing is the size of the missing set this pass started with.
	Missing int `json:"missing"`

	// Resolved counts lookups that succeeded this pass.
	Resolved int `json:"resolved"`

	// Unkeyed counts input records dropped for lack of any address
	// field.
	Unkeyed int `json:"unkeyed"`
}

// Options tunes an Enricher. The zero value selects defaults.
type Options struct {
	// Interval overrides DefaultInterval when positive. Tests use short
	// intervals; production must stay at or above one second.
	Interval time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Enricher schedules sequential, rate-limited geocoding over a durable
// cache.
type Enricher struct {
	cache    *geocache.Cache
	geo      Geocoder
	limiter  *rate.Limiter
	interval time.Duration
	logger   *slog.Logger
	inFlight atomic.Bool
}

// New creates an Enricher around an injected cache and geocoder.
func New(cache *geocache.Cache, geo Geocoder, opts *Options) *Enricher {
	interval := DefaultInterval
	logger := slog.Default()
	if opts != nil {
		if opts.Interval > 0 {
			interval = opts.Interval
		}
		if opts.Logger != nil {
			logger = opts.Logger
		}
	}
	return &Enricher{
		cache: cache,
		geo:   geo,
		// Burst 1 with one initial token: the first dispatch is
		// immediate, every later one waits out the interval.
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		logger:   logger,
	}
}

type keyedMember struct {
	member model.Member
	key    string
}

// Run enriches a member batch.
//
// # Description
//
// Partitions the batch into keyed and unkeyed records, resolves the
// keyed records whose fingerprint has no cache entry (sequentially,
// paced), then re-derives the location list for the whole batch from
// the final cache state.
//
// # Inputs
//
//   - ctx: Cancelling stops further dispatches between items; the
//     in-flight lookup still completes and persists.
//   - members: The batch. Never mutated.
//   - onProgress: Optional; called after each missing-set item.
//
// # Outputs
//
//   - *Result: Locations and pass counters. Nil on error.
//   - error: ErrEnrichmentInFlight when a run is already active, or the
//     wrapped context error on cancellation. Lookup failures are
//     absorbed, visible only as absent locations.
func (e *Enricher) Run(ctx context.Context, members []model.Member, onProgress ProgressFunc) (*Result, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, ErrEnrichmentInFlight
	}
	defer e.inFlight.Store(false)

	logger := e.logger.With("run_id", uuid.NewString())

	keyed := make([]keyedMember, 0, len(members))
	unkeyed := 0
	for _, m := range members {
		key := geocache.Key(m.Adresse, m.Ville, m.Pays)
		if key == "" {
			unkeyed++
			continue
		}
		keyed = append(keyed, keyedMember{member: m, key: key})
	}

	var missing []keyedMember
	for _, km := range keyed {
		if _, ok := e.cache.Get(km.key); !ok {
			missing = append(missing, km)
		}
	}
	cacheHits.Add(float64(len(keyed) - len(missing)))

	ctx, span := tracer.Start(ctx, "enrich.run")
	span.SetAttributes(
		attribute.Int("members.total", len(members)),
		attribute.Int("members.missing", len(missing)),
	)
	defer span.End()

	logger.Info("enrichment pass started",
		"members", len(members),
		"keyed", len(keyed),
		"missing", len(missing),
		"unkeyed", unkeyed)

	resolved := 0
	for i, km := range missing {
		// Wait consumes the initial token instantly on the first item
		// and blocks one full interval before each later one. It also
		// observes cancellation, satisfying the between-items check.
		if err := e.limiter.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("enrichment cancelled after %d of %d lookups: %w", i, len(missing), err)
		}

		m := km.member
		lookups.Inc()
		entry, ok, err := e.geo.Lookup(ctx, m.Adresse, m.Ville, m.Pays)
		switch {
		case err != nil:
			lookupFailures.Inc()
			logger.Debug("lookup failed, will retry on a future pass",
				"member_id", m.ID, "error", err)
		case !ok:
			logger.Debug("address not found", "member_id", m.ID)
		default:
			resolved++
			if err := e.cache.Put(ctx, km.key, entry); err != nil {
				// The entry stays usable in memory; only durability of
				// this one write is degraded.
				logger.Warn("cache persist failed", "member_id", m.ID, "error", err)
			}
		}

		if onProgress != nil {
			onProgress(Progress{Done: i + 1, Total: len(missing)})
		}
	}

	result := &Result{
		Locations: e.locate(keyed),
		Missing:   len(missing),
		Resolved:  resolved,
		Unkeyed:   unkeyed,
	}

	logger.Info("enrichment pass finished",
		"resolved", resolved,
		"located", len(result.Locations))
	return result, nil
}

// locate maps keyed members through the final cache state, keeping only
// those whose key currently resolves.
func (e *Enricher) locate(keyed []keyedMember) []MemberLocation {
	locations := make([]MemberLocation, 0, len(keyed))
	for _, km := range keyed {
		entry, ok := e.cache.Get(km.key)
		if !ok {
			continue
		}
		locations = append(locations, MemberLocation{
			MemberID: km.member.ID,
			Nom:      km.member.Nom,
			Prenom:   km.member.Prenom,
			Lat:      entry.Lat,
			Lon:      entry.Lon,
			Label:    entry.Label,
		})
	}
	return locations
}
