// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package collector drains cursor-paginated backend collections into
// complete in-memory slices.
//
// The association backend only ever exposes bounded pages, so every
// "show me everything" view (member map, treasury report) starts by
// walking a collection to exhaustion. Pages are requested strictly one
// at a time: page order is collection order, and the backend is not
// built for concurrent scans.
//
// # Termination
//
// A drain stops on whichever signal the endpoint provides first:
//
//   - a short page (fewer records than the requested page size), or
//   - pagination metadata reporting that the current page is the last.
//
// A configurable iteration ceiling guards against sources that provide
// neither. Hitting the ceiling is an abort, not a quiet stop.
//
// # Thread Safety
//
// CollectAll holds no shared state; concurrent calls with independent
// PageFuncs are safe.
package collector

import (
	"context"
	"log/slog"
)

// DefaultPageCeiling bounds a single drain when the source never
// signals completion. Ten pages covers every real collection the
// backend holds by an order of magnitude.
const DefaultPageCeiling = 10

// Page is one bounded slice of a remote collection plus the pagination
// metadata that came with it. TotalPages is zero when the endpoint does
// not report it.
type Page[T any] struct {
	Records    []T
	TotalPages int
}

// PageFunc fetches the 1-based page with the given index.
type PageFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// Options tunes a drain. The zero value selects defaults.
type Options struct {
	// PageCeiling overrides DefaultPageCeiling when positive.
	PageCeiling int

	// Logger receives the ceiling-abort warning. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// CollectAll drains a paged source into a single ordered slice.
//
// # Description
//
// Starts at page 1 and fetches sequentially until the source signals
// completion (short page or TotalPages metadata). An empty first page
// yields an empty slice, not an error.
//
// # Inputs
//
//   - ctx: Checked between page fetches; cancellation aborts the drain.
//   - fetch: Page accessor for the remote collection.
//   - pageSize: Records requested per page. Must be positive.
//   - opts: Optional tuning; pass nil for defaults.
//
// # Outputs
//
//   - []T: Concatenation of all pages in fetch order. Discarded in full
//     on any error.
//   - error: *FetchError on a failed or aborted fetch, ErrInvalidPageSize
//     on bad input. A ceiling abort wraps ErrPageCeiling.
func CollectAll[T any](ctx context.Context, fetch PageFunc[T], pageSize int, opts *Options) ([]T, error) {
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize
	}

	ceiling := DefaultPageCeiling
	logger := slog.Default()
	if opts != nil {
		if opts.PageCeiling > 0 {
			ceiling = opts.PageCeiling
		}
		if opts.Logger != nil {
			logger = opts.Logger
		}
	}

	records := make([]T, 0, pageSize)
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{Page: page, Err: err}
		}
		if page > ceiling {
			logger.Warn("collection aborted at page ceiling",
				"ceiling", ceiling,
				"collected", len(records))
			ceilingAborts.Inc()
			return nil, &FetchError{Page: page, Err: ErrPageCeiling}
		}

		p, err := fetch(ctx, page)
		if err != nil {
			return nil, &FetchError{Page: page, Err: err}
		}
		pagesFetched.Inc()
		records = append(records, p.Records...)

		if len(p.Records) < pageSize {
			return records, nil
		}
		if p.TotalPages > 0 && p.TotalPages <= page {
			return records, nil
		}
	}
}
