// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jappo-asso/backoffice/pkg/validation"
	"github.com/jappo-asso/backoffice/services/backoffice/client"
	"github.com/jappo-asso/backoffice/services/backoffice/collector"
	"github.com/jappo-asso/backoffice/services/backoffice/ledger"
	"github.com/jappo-asso/backoffice/services/backoffice/model"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	reportJSONOutput bool   // Output as JSON
	reportPeriode    string // Filter to one YYYY-MM period
	reportStatut     string // Filter by status
	reportQuery      string // Free-text member/category filter
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// reportCmd prints the treasury report.
//
// # Description
//
// Drains the three financial collections in parallel, applies the
// requested filters and aggregates the result. The human-readable form
// prints the KPI block and the monthly trend; --json emits the full
// report structure.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the aggregated treasury report",
	Long: `Prints the aggregated treasury report.

Examples:
  backoffice report
  backoffice report --json
  backoffice report --periode 2025-02
  backoffice report --statut paye --query diop`,
	RunE: runReportCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	reportCmd.Flags().BoolVar(&reportJSONOutput, "json", false,
		"Output the full report as JSON")
	reportCmd.Flags().StringVar(&reportPeriode, "periode", "",
		"Filter to one calendar month (YYYY-MM)")
	reportCmd.Flags().StringVar(&reportStatut, "statut", "",
		"Filter by status (paye, en_attente, valide, rejete, annule)")
	reportCmd.Flags().StringVarP(&reportQuery, "query", "q", "",
		"Free-text filter on member name or expense category")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runReportCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLogs, err := initLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLogs()

	var filters ledger.Filters
	if reportPeriode != "" {
		year, month, err := validation.ParsePeriod(reportPeriode)
		if err != nil {
			return err
		}
		filters.Year = year
		filters.Month = month
	}
	if err := validation.ValidateStatus(reportStatut); err != nil {
		return err
	}
	filters.Status = reportStatut
	filters.Query, err = validation.SanitizeQuery(reportQuery)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The report never touches the geocode cache, so skip the pipeline
	// and its database lock.
	cl, err := client.New(client.Config{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Backend.Token,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	opts := &collector.Options{PageCeiling: cfg.Backend.PageCeiling, Logger: logger}

	var (
		dues     []model.Due
		payments []model.Payment
		expenses []model.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dues, err = collector.CollectAll(gctx, cl.DuePages(cfg.Backend.PageSize), cfg.Backend.PageSize, opts)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = collector.CollectAll(gctx, cl.PaymentPages(cfg.Backend.PageSize), cfg.Backend.PageSize, opts)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = collector.CollectAll(gctx, cl.ExpensePages(cfg.Backend.PageSize), cfg.Backend.PageSize, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("drain financial collections: %w", err)
	}

	report := ledger.Aggregate(
		ledger.FilterDues(dues, filters),
		ledger.FilterPayments(payments, filters),
		ledger.FilterExpenses(expenses, filters),
	)

	if reportJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	return nil
}

// printReport renders the human-readable report.
func printReport(r *ledger.Report) {
	k := r.KPIs
	fmt.Println("Cotisations")
	fmt.Printf("  total: %d  payees: %d  en attente: %d\n",
		k.CotisationsTotal, k.CotisationsPayees, k.CotisationsEnAttente)
	fmt.Printf("  montant percu: %.2f EUR\n", k.MontantTotalEUR)
	fmt.Println("Repartition")
	for _, nv := range r.Distribution {
		fmt.Printf("  %-14s %.2f EUR\n", nv.Name, nv.Value)
	}
	fmt.Println("Dons et subventions")
	fmt.Printf("  %d operations, %.2f EUR\n", k.DonsSubventionsCount, k.DonsSubventionsEUR)
	fmt.Println("Depenses validees")
	fmt.Printf("  %d operations, %.2f EUR\n", k.DepensesValideesCount, k.DepensesValideesEUR)
	if len(r.Trend) > 0 {
		fmt.Println("Tendance mensuelle")
		for _, b := range r.Trend {
			fmt.Printf("  %s  cotisations %.2f  paiements %.2f  depenses %.2f\n",
				b.Label, b.Cotisations, b.Paiements, b.Depenses)
		}
	}
}
