// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ledger

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lower-cases, trims, and strips diacritics, so "Payé " and
// "paye" compare equal and "Sénégal" matches "senegal".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the
		// raw string rather than dropping the record.
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Classify maps a member's free-text country into one of the three
// fixed buckets.
//
// The senegal check runs before the france check; the order matters for
// strings matching neither, which must fall through to international.
// Matching is case- and diacritic-insensitive substring search, so
// "Dakar, Senegal" and "Sénégal" both classify as senegal.
func Classify(country string) Country {
	c := fold(country)
	switch {
	case strings.Contains(c, "senegal"):
		return CountrySenegal
	case strings.Contains(c, "france"):
		return CountryFrance
	default:
		return CountryInternational
	}
}
