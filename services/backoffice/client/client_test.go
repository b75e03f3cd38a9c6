// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jappo-asso/backoffice/services/backoffice/collector"
)

// newBackend serves a paged /membres collection of n members.
func newBackend(t *testing.T, n int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/membres", r.URL.Path)

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		require.Positive(t, page)
		require.Positive(t, limit)

		start := (page - 1) * limit
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[`)
		wrote := false
		for i := start; i < n && i < start+limit; i++ {
			if wrote {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":"m%d","nom":"Membre%d","prenom":"P"}`, i, i)
			wrote = true
		}
		fmt.Fprint(w, `]}`)
	}))
}

// TestMemberPagesDrain verifies the client's page accessor composes
// with the collector to drain a full collection.
func TestMemberPagesDrain(t *testing.T) {
	srv := newBackend(t, 12)
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	members, err := collector.CollectAll(context.Background(), c.MemberPages(5), 5, nil)
	require.NoError(t, err)
	require.Len(t, members, 12)
	assert.Equal(t, "m0", members[0].ID)
	assert.Equal(t, "m11", members[11].ID)
}

// TestAuthorizationHeader verifies the bearer token is attached.
func TestAuthorizationHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Token: "secret-token"})
	require.NoError(t, err)

	_, err = c.MemberPages(10)(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

// TestPaginationMetadata verifies totalPages is surfaced to the
// collector.
func TestPaginationMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, `{"data":[{"id":"d%s","statut":"paye","montant":10}],"pagination":{"totalPages":2}}`, page)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	// Pages are always "full" at limit 1; only totalPages terminates.
	dues, err := collector.CollectAll(context.Background(), c.DuePages(1), 1, nil)
	require.NoError(t, err)
	assert.Len(t, dues, 2)
}

// TestBackendErrorStatus verifies a non-200 response fails the page.
func TestBackendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.ExpensePages(10)(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

// TestNewRequiresBaseURL verifies configuration validation.
func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
