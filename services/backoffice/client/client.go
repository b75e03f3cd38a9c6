// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package client talks to the association backend's paged REST
// endpoints.
//
// The backend exposes every collection the same way: a page/limit query
// pair and a data envelope with optional pagination metadata. This
// package only knows that shape; draining a full collection is the
// collector's job, so each endpoint is surfaced as a PageFunc.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jappo-asso/backoffice/services/backoffice/collector"
	"github.com/jappo-asso/backoffice/services/backoffice/model"
)

// DefaultTimeout bounds a single page request.
const DefaultTimeout = 30 * time.Second

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds backend connection settings.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.jappo-asso.org".
	// Required.
	BaseURL string

	// Token is the bearer token attached to every request. Optional in
	// development setups.
	Token string

	// HTTPClient defaults to a net/http client with DefaultTimeout.
	HTTPClient HTTPClient

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a thin paged-endpoint reader. It performs no caching and no
// retries; a failed page is fatal to the collection that requested it.
type Client struct {
	baseURL string
	token   string
	http    HTTPClient
	logger  *slog.Logger
}

// New validates the configuration and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    hc,
		logger:  logger,
	}, nil
}

// envelope is the backend's uniform collection response.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *pagination     `json:"pagination,omitempty"`
}

type pagination struct {
	TotalPages int `json:"totalPages"`
}

// fetchPage requests one page of a collection and decodes its records.
func fetchPage[T any](ctx context.Context, c *Client, path string, page, limit int) (collector.Page[T], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return collector.Page[T]{}, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return collector.Page[T]{}, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return collector.Page[T]{}, fmt.Errorf("backend returned status %s for %s", resp.Status, path)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return collector.Page[T]{}, fmt.Errorf("decode %s response: %w", path, err)
	}

	var records []T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return collector.Page[T]{}, fmt.Errorf("decode %s records: %w", path, err)
		}
	}

	p := collector.Page[T]{Records: records}
	if env.Pagination != nil {
		p.TotalPages = env.Pagination.TotalPages
	}
	return p, nil
}

// MemberPages returns the page accessor for the adhesions collection.
func (c *Client) MemberPages(limit int) collector.PageFunc[model.Member] {
	return func(ctx context.Context, page int) (collector.Page[model.Member], error) {
		return fetchPage[model.Member](ctx, c, "/membres", page, limit)
	}
}

// DuePages returns the page accessor for the cotisations collection.
func (c *Client) DuePages(limit int) collector.PageFunc[model.Due] {
	return func(ctx context.Context, page int) (collector.Page[model.Due], error) {
		return fetchPage[model.Due](ctx, c, "/cotisations", page, limit)
	}
}

// PaymentPages returns the page accessor for the paiements collection.
func (c *Client) PaymentPages(limit int) collector.PageFunc[model.Payment] {
	return func(ctx context.Context, page int) (collector.Page[model.Payment], error) {
		return fetchPage[model.Payment](ctx, c, "/paiements", page, limit)
	}
}

// ExpensePages returns the page accessor for the depenses collection.
func (c *Client) ExpensePages(limit int) collector.PageFunc[model.Expense] {
	return func(ctx context.Context, page int) (collector.Page[model.Expense], error) {
		return fetchPage[model.Expense](ctx, c, "/depenses", page, limit)
	}
}
