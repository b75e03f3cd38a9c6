// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package enrich

import "errors"

// Sentinel errors for enrichment runs.
var (
	// ErrEnrichmentInFlight is returned when Run is called while a
	// previous run is still active. Runs are deliberately exclusive:
	// overlapping passes would defeat the pacing that protects the
	// upstream geocoding quota.
	ErrEnrichmentInFlight = errors.New("an enrichment run is already in flight")
)
