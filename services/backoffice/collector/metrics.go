// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_collector_pages_fetched_total",
		Help: "Total backend pages fetched across all collections",
	})

	ceilingAborts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_collector_ceiling_aborts_total",
		Help: "Total collections aborted at the page ceiling",
	})
)
