// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package model defines the wire types exchanged with the association
// backend.
//
// The backend is a French-speaking REST API, so JSON field names follow
// its vocabulary (adresse, cotisation, paiement, depense). These types
// are decoded straight from paged responses and are never mutated after
// receipt; downstream components either copy them into aggregates or
// derive new values from them.
package model

// Member is one adhesion record. Address fields are optional free text
// entered by the treasurer; they are only ever used to derive a geocode
// lookup key.
type Member struct {
	ID        string `json:"id"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Email     string `json:"email,omitempty"`
	Telephone string `json:"telephone,omitempty"`
	Adresse   string `json:"adresse,omitempty"`
	Ville     string `json:"ville,omitempty"`
	Pays      string `json:"pays,omitempty"`
	Statut    string `json:"statut,omitempty"`
}

// MemberRef is the nested owner reference carried by financial records.
type MemberRef struct {
	ID     string `json:"id"`
	Nom    string `json:"nom,omitempty"`
	Prenom string `json:"prenom,omitempty"`
	Pays   string `json:"pays,omitempty"`
}

// Due is a membership cotisation for one calendar period.
//
// MontantEUR is the backend's currency-normalized amount and may be
// absent for legacy rows; consumers fall back to Montant.
type Due struct {
	ID           string    `json:"id"`
	Statut       string    `json:"statut"`
	Montant      float64   `json:"montant"`
	MontantEUR   *float64  `json:"montant_eur,omitempty"`
	PeriodeMois  int       `json:"periode_mois,omitempty"`
	PeriodeAnnee int       `json:"periode_annee,omitempty"`
	Membre       MemberRef `json:"membre"`
}

// Payment is an incoming payment (don, subvention, remboursement...).
type Payment struct {
	ID           string    `json:"id"`
	Statut       string    `json:"statut"`
	Type         string    `json:"type"`
	Montant      float64   `json:"montant"`
	MontantEUR   *float64  `json:"montant_eur,omitempty"`
	PeriodeMois  int       `json:"periode_mois,omitempty"`
	PeriodeAnnee int       `json:"periode_annee,omitempty"`
	Membre       MemberRef `json:"membre,omitempty"`
}

// Expense is an outgoing treasury operation. Statut values are already
// canonical on the backend side ("valide", "en_attente", "rejete").
type Expense struct {
	ID           string   `json:"id"`
	Statut       string   `json:"statut"`
	Categorie    string   `json:"categorie,omitempty"`
	Montant      float64  `json:"montant"`
	MontantEUR   *float64 `json:"montant_eur,omitempty"`
	PeriodeMois  int      `json:"periode_mois,omitempty"`
	PeriodeAnnee int      `json:"periode_annee,omitempty"`
}

// AmountEUR returns the normalized amount when the backend provided
// one, the raw amount otherwise.
func (d Due) AmountEUR() float64 {
	if d.MontantEUR != nil {
		return *d.MontantEUR
	}
	return d.Montant
}

// AmountEUR returns the normalized amount when the backend provided
// one, the raw amount otherwise.
func (p Payment) AmountEUR() float64 {
	if p.MontantEUR != nil {
		return *p.MontantEUR
	}
	return p.Montant
}

// AmountEUR returns the normalized amount when the backend provided
// one, the raw amount otherwise.
func (e Expense) AmountEUR() float64 {
	if e.MontantEUR != nil {
		return *e.MontantEUR
	}
	return e.Montant
}
