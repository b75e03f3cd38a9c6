// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNominatimLookupFound verifies a successful structured search.
func TestNominatimLookupFound(t *testing.T) {
	var gotQuery map[string]string
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		q := r.URL.Query()
		gotQuery = map[string]string{
			"street":  q.Get("street"),
			"city":    q.Get("city"),
			"country": q.Get("country"),
			"format":  q.Get("format"),
			"limit":   q.Get("limit"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"14.6928","lon":"-17.4467","display_name":"Dakar, Sénégal"}]`))
	}))
	defer srv.Close()

	geo := NewNominatim(srv.URL, "backoffice-test/1.0", nil)
	entry, ok, err := geo.Lookup(context.Background(), "5 av. Bourguiba", "Dakar", "Sénégal")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 14.6928, entry.Lat, 1e-9)
	assert.InDelta(t, -17.4467, entry.Lon, 1e-9)
	assert.Equal(t, "Dakar, Sénégal", entry.Label)

	assert.Equal(t, "backoffice-test/1.0", gotUA)
	assert.Equal(t, "5 av. Bourguiba", gotQuery["street"])
	assert.Equal(t, "Dakar", gotQuery["city"])
	assert.Equal(t, "Sénégal", gotQuery["country"])
	assert.Equal(t, "json", gotQuery["format"])
	assert.Equal(t, "1", gotQuery["limit"])
}

// TestNominatimLookupNotFound verifies an empty result array is a clean
// miss, not an error.
func TestNominatimLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	geo := NewNominatim(srv.URL, "backoffice-test/1.0", nil)
	_, ok, err := geo.Lookup(context.Background(), "", "Nowhere", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestNominatimLookupErrors verifies transport and status failures are
// reported as errors.
func TestNominatimLookupErrors(t *testing.T) {
	t.Run("throttled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		geo := NewNominatim(srv.URL, "backoffice-test/1.0", nil)
		_, _, err := geo.Lookup(context.Background(), "", "Dakar", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("garbage payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"unexpected":"shape"}`))
		}))
		defer srv.Close()

		geo := NewNominatim(srv.URL, "backoffice-test/1.0", nil)
		_, _, err := geo.Lookup(context.Background(), "", "Dakar", "")
		assert.Error(t, err)
	})

	t.Run("unparseable coordinate", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"lat":"abc","lon":"1.0","display_name":"x"}]`))
		}))
		defer srv.Close()

		geo := NewNominatim(srv.URL, "backoffice-test/1.0", nil)
		_, _, err := geo.Lookup(context.Background(), "", "Dakar", "")
		assert.Error(t, err)
	})
}
