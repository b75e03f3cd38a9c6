// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package enrich

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_enrich_lookups_total",
		Help: "Total geocoding lookups dispatched",
	})

	lookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_enrich_lookup_failures_total",
		Help: "Total geocoding lookups that errored",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_enrich_cache_hits_total",
		Help: "Total keyed records already present in the geocode cache",
	})
)
