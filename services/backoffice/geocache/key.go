// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package geocache persists resolved geocoding results across process
// restarts.
//
// External geocoding lookups are slow and quota-bound, and member
// addresses rarely change, so every resolved coordinate is cached
// forever under a normalized address fingerprint. The cache is a single
// flat mapping serialized into one durable blob slot; it is read in
// full at startup and rewritten in full on every addition.
//
// Two records with identical address fields share one cache entry, no
// matter which member they belong to.
package geocache

import "strings"

// keyDelimiter joins the normalized address fields of a Key. It never
// changes: a new delimiter would orphan every previously cached entry.
const keyDelimiter = "|"

// Key derives the cache fingerprint for a free-text address.
//
// Fields are lower-cased and trimmed, empty fields are dropped, and the
// survivors are joined with a fixed delimiter. The result is empty when
// no field carries text, in which case the record cannot be geocoded at
// all.
func Key(street, city, country string) string {
	parts := make([]string, 0, 3)
	for _, f := range []string{street, city, country} {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, keyDelimiter)
}
