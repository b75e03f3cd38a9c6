// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for user-supplied query
// parameters.
//
// Filter values arrive straight from dashboard URLs and end up in logs
// and backend requests, so they are whitelisted or bounded here before
// anything else touches them.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxQueryLength bounds the free-text member search.
const MaxQueryLength = 100

// knownStatuses is the closed set of record statuses the backend uses.
var knownStatuses = map[string]struct{}{
	"paye":       {},
	"en_attente": {},
	"valide":     {},
	"rejete":     {},
	"annule":     {},
}

// periodPattern matches "YYYY-MM" with a sane year range.
var periodPattern = regexp.MustCompile(`^([12][0-9]{3})-(0[1-9]|1[0-2])$`)

// ValidateStatus checks a status filter against the known set. The
// empty string is valid and means "no filter".
func ValidateStatus(status string) error {
	if status == "" {
		return nil
	}
	if _, ok := knownStatuses[status]; !ok {
		return fmt.Errorf("unknown status %q", status)
	}
	return nil
}

// ParsePeriod parses a "YYYY-MM" period filter into year and month.
// The empty string is valid and yields (0, 0), meaning "no filter".
func ParsePeriod(period string) (year, month int, err error) {
	if period == "" {
		return 0, 0, nil
	}
	m := periodPattern.FindStringSubmatch(period)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid period %q (expected YYYY-MM)", period)
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	return year, month, nil
}

// SanitizeQuery trims and bounds a free-text search and strips control
// characters. Returns an error when the query exceeds MaxQueryLength.
func SanitizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		return "", fmt.Errorf("query too long (%d > %d characters)", len(query), MaxQueryLength)
	}

	var b strings.Builder
	for _, r := range query {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}
