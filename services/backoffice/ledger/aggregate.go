// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ledger

import (
	"fmt"
	"sort"

	"github.com/jappo-asso/backoffice/services/backoffice/model"
)

// Canonical status and type values after folding.
const (
	statusPaye   = "paye"
	statusValide = "valide"

	typeDon        = "don"
	typeSubvention = "subvention"
)

// monthLabels holds the French short month names used in trend labels,
// indexed 1-12.
var monthLabels = [13]string{
	"", "janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// Aggregate computes the treasury report from three materialized,
// pre-filtered collections.
//
// # Description
//
// Dues drive the membership KPIs and the geographic split; payments
// contribute dons/subventions; expenses contribute validated spending.
// Every record carrying at least one period field also lands in its
// monthly trend bucket, even when it contributes zero (a pending due
// still marks its month). Records with no period fields at all are
// counted in the KPIs but skipped from the trend.
//
// # Outputs
//
//   - *Report: KPIs, ascending trend buckets, and the fixed three-slot
//     distribution. Byte-identical for identical inputs.
func Aggregate(dues []model.Due, payments []model.Payment, expenses []model.Expense) *Report {
	report := &Report{}
	buckets := make(map[string]*Bucket)

	for _, d := range dues {
		report.KPIs.CotisationsTotal++

		paid := fold(d.Statut) == statusPaye
		amount := 0.0
		if paid {
			report.KPIs.CotisationsPayees++
			amount = d.AmountEUR()
			report.KPIs.MontantTotalEUR += amount
			switch Classify(d.Membre.Pays) {
			case CountrySenegal:
				report.KPIs.MontantSenegalEUR += amount
			case CountryFrance:
				report.KPIs.MontantFranceEUR += amount
			default:
				report.KPIs.MontantInternationalEUR += amount
			}
		}

		if b := bucketFor(buckets, d.PeriodeAnnee, d.PeriodeMois); b != nil {
			b.Cotisations += amount
		}
	}
	report.KPIs.CotisationsEnAttente = report.KPIs.CotisationsTotal - report.KPIs.CotisationsPayees

	for _, p := range payments {
		amount := 0.0
		if fold(p.Statut) == statusValide {
			if t := fold(p.Type); t == typeDon || t == typeSubvention {
				amount = p.AmountEUR()
				report.KPIs.DonsSubventionsCount++
				report.KPIs.DonsSubventionsEUR += amount
			}
		}
		if b := bucketFor(buckets, p.PeriodeAnnee, p.PeriodeMois); b != nil {
			b.Paiements += amount
		}
	}

	for _, e := range expenses {
		amount := 0.0
		// Expense statuses are canonical on the backend; exact match,
		// no folding.
		if e.Statut == statusValide {
			amount = e.AmountEUR()
			report.KPIs.DepensesValideesCount++
			report.KPIs.DepensesValideesEUR += amount
		}
		if b := bucketFor(buckets, e.PeriodeAnnee, e.PeriodeMois); b != nil {
			b.Depenses += amount
		}
	}

	report.Trend = make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		report.Trend = append(report.Trend, *b)
	}
	sort.Slice(report.Trend, func(i, j int) bool {
		return report.Trend[i].Key < report.Trend[j].Key
	})

	report.Distribution = []NamedValue{
		{Name: "France", Value: report.KPIs.MontantFranceEUR},
		{Name: "Sénégal", Value: report.KPIs.MontantSenegalEUR},
		{Name: "International", Value: report.KPIs.MontantInternationalEUR},
	}

	return report
}

// bucketFor returns the lazily created bucket for a period, or nil when
// both period fields are absent.
func bucketFor(buckets map[string]*Bucket, year, month int) *Bucket {
	if year == 0 && month == 0 {
		return nil
	}

	key := fmt.Sprintf("%04d-%02d", year, month)
	if b, ok := buckets[key]; ok {
		return b
	}

	label := key
	if month >= 1 && month <= 12 {
		label = fmt.Sprintf("%s %d", monthLabels[month], year)
	}
	b := &Bucket{Key: key, Label: label}
	buckets[key] = b
	return b
}
