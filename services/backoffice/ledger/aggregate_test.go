// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jappo-asso/backoffice/services/backoffice/model"
)

func due(status string, amount float64, country string, month, year int) model.Due {
	return model.Due{
		Statut:       status,
		Montant:      amount,
		PeriodeMois:  month,
		PeriodeAnnee: year,
		Membre:       model.MemberRef{Pays: country},
	}
}

// TestAggregateReferenceScenario walks the canonical three-due example
// the dashboard was specified against.
func TestAggregateReferenceScenario(t *testing.T) {
	dues := []model.Due{
		due("paye", 10, "France", 1, 2025),
		due("paye", 2000, "Sénégal", 1, 2025),
		due("en_attente", 10, "France", 2, 2025),
	}

	report := Aggregate(dues, nil, nil)

	assert.Equal(t, 3, report.KPIs.CotisationsTotal)
	assert.Equal(t, 2, report.KPIs.CotisationsPayees)
	assert.Equal(t, 1, report.KPIs.CotisationsEnAttente)
	assert.InDelta(t, 2010, report.KPIs.MontantTotalEUR, 1e-9)
	assert.InDelta(t, 2000, report.KPIs.MontantSenegalEUR, 1e-9)
	assert.InDelta(t, 10, report.KPIs.MontantFranceEUR, 1e-9)
	assert.InDelta(t, 0, report.KPIs.MontantInternationalEUR, 1e-9)

	require.Equal(t, []NamedValue{
		{Name: "France", Value: 10},
		{Name: "Sénégal", Value: 2000},
		{Name: "International", Value: 0},
	}, report.Distribution)

	require.Len(t, report.Trend, 2)
	assert.Equal(t, "2025-01", report.Trend[0].Key)
	assert.InDelta(t, 2010, report.Trend[0].Cotisations, 1e-9)
	// The pending due marks its month without contributing money.
	assert.Equal(t, "2025-02", report.Trend[1].Key)
	assert.InDelta(t, 0, report.Trend[1].Cotisations, 1e-9)
}

// TestAggregateStatusFolding verifies accented and cased statuses count
// as paid.
func TestAggregateStatusFolding(t *testing.T) {
	dues := []model.Due{
		due("Payé", 50, "France", 1, 2025),
		due(" PAYE ", 30, "France", 1, 2025),
		due("en_attente", 20, "France", 1, 2025),
	}

	report := Aggregate(dues, nil, nil)
	assert.Equal(t, 2, report.KPIs.CotisationsPayees)
	assert.InDelta(t, 80, report.KPIs.MontantTotalEUR, 1e-9)
}

// TestAggregateNormalizedAmountPreferred verifies montant_eur wins over
// the raw amount when present.
func TestAggregateNormalizedAmountPreferred(t *testing.T) {
	eur := 15.0
	d := due("paye", 10000, "Sénégal", 1, 2025) // raw amount in XOF
	d.MontantEUR = &eur

	report := Aggregate([]model.Due{d}, nil, nil)
	assert.InDelta(t, 15, report.KPIs.MontantTotalEUR, 1e-9)
	assert.InDelta(t, 15, report.KPIs.MontantSenegalEUR, 1e-9)
}

// TestAggregateTrendConsistency verifies the trend cotisations sum
// equals the total KPI when every due carries period fields.
func TestAggregateTrendConsistency(t *testing.T) {
	dues := []model.Due{
		due("paye", 100, "France", 1, 2024),
		due("paye", 250, "Sénégal", 7, 2024),
		due("paye", 40, "Mali", 12, 2024),
		due("en_attente", 999, "France", 3, 2024),
	}

	report := Aggregate(dues, nil, nil)

	var sum float64
	for _, b := range report.Trend {
		sum += b.Cotisations
	}
	assert.InDelta(t, report.KPIs.MontantTotalEUR, sum, 1e-9)
}

// TestAggregateMissingPeriodSkippedFromTrend verifies a record with no
// period fields counts in KPIs but not in the trend.
func TestAggregateMissingPeriodSkippedFromTrend(t *testing.T) {
	dues := []model.Due{
		due("paye", 100, "France", 0, 0),
		due("paye", 50, "France", 1, 2025),
	}

	report := Aggregate(dues, nil, nil)
	assert.InDelta(t, 150, report.KPIs.MontantTotalEUR, 1e-9)
	require.Len(t, report.Trend, 1)
	assert.InDelta(t, 50, report.Trend[0].Cotisations, 1e-9)
}

// TestAggregatePayments verifies the dons/subventions rule.
func TestAggregatePayments(t *testing.T) {
	payments := []model.Payment{
		{Statut: "valide", Type: "don", Montant: 100, PeriodeMois: 1, PeriodeAnnee: 2025},
		{Statut: "valide", Type: "Subvention", Montant: 500, PeriodeMois: 2, PeriodeAnnee: 2025},
		{Statut: "valide", Type: "remboursement", Montant: 50, PeriodeMois: 1, PeriodeAnnee: 2025},
		{Statut: "en_attente", Type: "don", Montant: 75, PeriodeMois: 1, PeriodeAnnee: 2025},
	}

	report := Aggregate(nil, payments, nil)
	assert.Equal(t, 2, report.KPIs.DonsSubventionsCount)
	assert.InDelta(t, 600, report.KPIs.DonsSubventionsEUR, 1e-9)

	require.Len(t, report.Trend, 2)
	assert.InDelta(t, 100, report.Trend[0].Paiements, 1e-9)
	assert.InDelta(t, 500, report.Trend[1].Paiements, 1e-9)
}

// TestAggregateExpensesExactStatus verifies expenses use exact status
// matching, no folding.
func TestAggregateExpensesExactStatus(t *testing.T) {
	expenses := []model.Expense{
		{Statut: "valide", Montant: 200, PeriodeMois: 3, PeriodeAnnee: 2025},
		{Statut: "Validé", Montant: 300, PeriodeMois: 3, PeriodeAnnee: 2025}, // not canonical, not counted
		{Statut: "rejete", Montant: 80, PeriodeMois: 3, PeriodeAnnee: 2025},
	}

	report := Aggregate(nil, nil, expenses)
	assert.Equal(t, 1, report.KPIs.DepensesValideesCount)
	assert.InDelta(t, 200, report.KPIs.DepensesValideesEUR, 1e-9)
}

// TestAggregateTrendSorted verifies buckets come out ascending across
// years.
func TestAggregateTrendSorted(t *testing.T) {
	dues := []model.Due{
		due("paye", 1, "France", 11, 2024),
		due("paye", 1, "France", 2, 2025),
		due("paye", 1, "France", 1, 2025),
	}

	report := Aggregate(dues, nil, nil)
	require.Len(t, report.Trend, 3)
	assert.Equal(t, "2024-11", report.Trend[0].Key)
	assert.Equal(t, "2025-01", report.Trend[1].Key)
	assert.Equal(t, "2025-02", report.Trend[2].Key)
	assert.Equal(t, "nov. 2024", report.Trend[0].Label)
	assert.Equal(t, "janv. 2025", report.Trend[1].Label)
}

// TestAggregateDeterministic verifies identical inputs produce
// identical reports.
func TestAggregateDeterministic(t *testing.T) {
	dues := []model.Due{
		due("paye", 10, "France", 1, 2025),
		due("paye", 20, "Sénégal", 2, 2025),
		due("en_attente", 30, "Mali", 3, 2025),
	}
	payments := []model.Payment{
		{Statut: "valide", Type: "don", Montant: 5, PeriodeMois: 1, PeriodeAnnee: 2025},
	}
	expenses := []model.Expense{
		{Statut: "valide", Montant: 7, PeriodeMois: 2, PeriodeAnnee: 2025},
	}

	first := Aggregate(dues, payments, expenses)
	second := Aggregate(dues, payments, expenses)
	assert.Equal(t, first, second)
}

// TestAggregateEmptyInputs verifies the zero report shape.
func TestAggregateEmptyInputs(t *testing.T) {
	report := Aggregate(nil, nil, nil)
	assert.Equal(t, 0, report.KPIs.CotisationsTotal)
	assert.Empty(t, report.Trend)
	require.Len(t, report.Distribution, 3)
	assert.Equal(t, "France", report.Distribution[0].Name)
}
