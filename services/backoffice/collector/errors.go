// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collector

import (
	"errors"
	"fmt"
)

// Sentinel errors for collection runs.
var (
	// ErrPageCeiling is returned (wrapped in a FetchError) when a source
	// keeps producing full pages without ever signalling completion and
	// the iteration ceiling is reached. This is an abort, not a normal
	// termination: nothing collected so far is returned.
	ErrPageCeiling = errors.New("page ceiling reached without completion signal")

	// ErrInvalidPageSize is returned when CollectAll is called with a
	// non-positive page size.
	ErrInvalidPageSize = errors.New("page size must be positive")
)

// FetchError reports a failed page request. The collection it belongs
// to is discarded in full; there is no partial-result recovery within a
// single CollectAll call.
type FetchError struct {
	// Page is the 1-based index of the page that failed.
	Page int

	// Err is the underlying cause.
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
