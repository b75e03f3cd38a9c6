// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jappo-asso/backoffice/services/backoffice/geocache"
)

// DefaultNominatimURL is the public OSM Nominatim instance. Its usage
// policy is the origin of the one-request-per-second pacing contract.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Nominatim is a Geocoder over the OSM Nominatim structured search API.
//
// It performs no pacing of its own; the Enricher owns the rate limit.
type Nominatim struct {
	baseURL   string
	userAgent string
	http      HTTPClient
}

// NewNominatim creates a client. baseURL defaults to the public
// instance; userAgent is mandatory under the Nominatim usage policy and
// must identify the deployment.
func NewNominatim(baseURL, userAgent string, hc HTTPClient) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Nominatim{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      hc,
	}
}

// nominatimResult is one match in the search response. Coordinates come
// back as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup resolves an address via structured search.
//
// An empty result array is a clean "not found" (ok=false, nil error);
// transport failures, non-200 statuses, and unparseable payloads are
// lookup errors.
func (n *Nominatim) Lookup(ctx context.Context, street, city, country string) (geocache.Entry, bool, error) {
	q := url.Values{}
	if street != "" {
		q.Set("street", street)
	}
	if city != "" {
		q.Set("city", city)
	}
	if country != "" {
		q.Set("country", country)
	}
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return geocache.Entry{}, false, fmt.Errorf("build geocoder request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return geocache.Entry{}, false, fmt.Errorf("call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geocache.Entry{}, false, fmt.Errorf("geocoder returned status %s", resp.Status)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geocache.Entry{}, false, fmt.Errorf("decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		return geocache.Entry{}, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geocache.Entry{}, false, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geocache.Entry{}, false, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}

	return geocache.Entry{
		Lat:   lat,
		Lon:   lon,
		Label: results[0].DisplayName,
	}, true, nil
}
