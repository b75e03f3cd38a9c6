// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ledger turns materialized financial collections into the
// display-ready aggregates of the treasury dashboard.
//
// Aggregate is a pure function: no I/O, no hidden state, deterministic
// output ordering. The three input collections arrive already drained
// by the collector and already filtered by the caller; the aggregator
// only groups, sums, and buckets.
package ledger

// Country is the geographic bucket a due's owning member falls into.
type Country string

// The three fixed geographic buckets of the dashboard.
const (
	CountrySenegal       Country = "senegal"
	CountryFrance        Country = "france"
	CountryInternational Country = "international"
)

// KPISet is the headline roll-up of the treasury view. Monetary fields
// are EUR-normalized sums.
type KPISet struct {
	CotisationsTotal     int `json:"cotisations_total"`
	CotisationsPayees    int `json:"cotisations_payees"`
	CotisationsEnAttente int `json:"cotisations_en_attente"`

	// MontantTotalEUR sums paid dues only; pending dues carry no money
	// yet.
	MontantTotalEUR         float64 `json:"montant_total_eur"`
	MontantSenegalEUR       float64 `json:"montant_senegal_eur"`
	MontantFranceEUR        float64 `json:"montant_france_eur"`
	MontantInternationalEUR float64 `json:"montant_international_eur"`

	DonsSubventionsCount int     `json:"dons_subventions_count"`
	DonsSubventionsEUR   float64 `json:"dons_subventions_eur"`

	DepensesValideesCount int     `json:"depenses_validees_count"`
	DepensesValideesEUR   float64 `json:"depenses_validees_eur"`
}

// Bucket accumulates the monthly trend series. Key sorts
// lexicographically in chronological order ("2025-01" < "2025-02").
type Bucket struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Cotisations float64 `json:"cotisations"`
	Paiements   float64 `json:"paiements"`
	Depenses    float64 `json:"depenses"`
}

// NamedValue is one slot of the categorical distribution breakdown.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Report is the full output of one aggregation pass.
type Report struct {
	KPIs KPISet `json:"kpis"`

	// Trend holds one bucket per calendar month that received at least
	// one record, ascending.
	Trend []Bucket `json:"trend"`

	// Distribution is the fixed France / Sénégal / International split
	// of paid-due amounts, always three slots in that order.
	Distribution []NamedValue `json:"distribution"`
}
