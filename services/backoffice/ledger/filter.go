// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ledger

import (
	"strings"

	"github.com/jappo-asso/backoffice/services/backoffice/model"
)

// Filters narrows the materialized collections before aggregation.
// Aggregate itself never filters; these helpers implement the
// client-side filter contract for it. Zero fields match everything.
type Filters struct {
	// Year and Month restrict to one period. Month without Year is
	// ignored.
	Year  int
	Month int

	// Status matches records whose folded status equals the folded
	// value ("Payé" filters like "paye").
	Status string

	// Query is a case/diacritic-insensitive substring over the owning
	// member's name, or an expense's category.
	Query string
}

func (f Filters) matchPeriod(year, month int) bool {
	if f.Year == 0 {
		return true
	}
	if year != f.Year {
		return false
	}
	return f.Month == 0 || month == f.Month
}

func (f Filters) matchStatus(status string) bool {
	return f.Status == "" || fold(status) == fold(f.Status)
}

func (f Filters) matchQuery(fields ...string) bool {
	if f.Query == "" {
		return true
	}
	q := fold(f.Query)
	for _, field := range fields {
		if strings.Contains(fold(field), q) {
			return true
		}
	}
	return false
}

// FilterDues returns the dues matching all set filters, in input order.
func FilterDues(dues []model.Due, f Filters) []model.Due {
	out := make([]model.Due, 0, len(dues))
	for _, d := range dues {
		if !f.matchPeriod(d.PeriodeAnnee, d.PeriodeMois) {
			continue
		}
		if !f.matchStatus(d.Statut) {
			continue
		}
		if !f.matchQuery(d.Membre.Nom, d.Membre.Prenom) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// FilterPayments returns the payments matching all set filters, in
// input order.
func FilterPayments(payments []model.Payment, f Filters) []model.Payment {
	out := make([]model.Payment, 0, len(payments))
	for _, p := range payments {
		if !f.matchPeriod(p.PeriodeAnnee, p.PeriodeMois) {
			continue
		}
		if !f.matchStatus(p.Statut) {
			continue
		}
		if !f.matchQuery(p.Membre.Nom, p.Membre.Prenom) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterExpenses returns the expenses matching all set filters, in
// input order. The free-text query applies to the expense category.
func FilterExpenses(expenses []model.Expense, f Filters) []model.Expense {
	out := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !f.matchPeriod(e.PeriodeAnnee, e.PeriodeMois) {
			continue
		}
		if !f.matchStatus(e.Statut) {
			continue
		}
		if !f.matchQuery(e.Categorie) {
			continue
		}
		out = append(out, e)
	}
	return out
}
