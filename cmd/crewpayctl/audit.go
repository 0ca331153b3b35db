package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"crewpay/internal/config"
	"crewpay/internal/metrics"
	"crewpay/internal/models"
	"crewpay/internal/repositories"
	"crewpay/internal/services/audit"

	"github.com/spf13/cobra"
)

var errCriticalFound = errors.New("critical violations found")

// opener builds an auditor and returns a cleanup func.
type opener func() (*audit.Auditor, func(), error)

func openFromEnv() (*audit.Auditor, func(), error) {
	db, err := repositories.OpenDB(repositories.DSNFromEnv(), repositories.DBConfigFromEnv())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	fees, err := config.LoadFeeSchedule()
	if err != nil {
		repositories.CloseDB(db)
		return nil, nil, fmt.Errorf("loading fee schedule: %w", err)
	}
	a := audit.NewAuditor(repositories.NewStore(db), fees, metrics.NoopCollector{})
	return a, func() { repositories.CloseDB(db) }, nil
}

func newAuditCmd(open opener, out io.Writer) *cobra.Command {
	var opts audit.Options
	var format string
	var failOnCritical bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Reconcile released jobs against ledger and transfer records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "text" {
				return fmt.Errorf("unknown format %q", format)
			}
			auditor, cleanup, err := open()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			report, err := auditor.Run(ctx, models.Actor{Role: models.RoleSystem}, opts)
			if err != nil {
				return err
			}
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printText(out, report)
			}
			if failOnCritical && report.Summary.BySeverity[audit.SeverityCritical] > 0 {
				return errCriticalFound
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Take, "take", audit.DefaultTake, "most recent released jobs to scan")
	cmd.Flags().IntVar(&opts.OrphanDays, "orphan-days", audit.DefaultOrphanDays, "age in days before a pending transfer counts as orphaned")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or text")
	cmd.Flags().BoolVar(&failOnCritical, "fail-on-critical", false, "exit non-zero when a CRITICAL violation is found")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall audit timeout")
	return cmd
}

func printText(w io.Writer, r *audit.Report) {
	fmt.Fprintf(w, "run %s at %s\n", r.RunID, r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "scanned %d jobs, %d transfers\n", r.Summary.JobsScanned, r.Summary.TransfersScanned)
	for _, sev := range audit.Severities {
		fmt.Fprintf(w, "  %-8s %d\n", sev, r.Summary.BySeverity[sev])
	}
	for _, v := range r.Violations {
		job := "-"
		if v.JobID != nil {
			job = fmt.Sprintf("%d", *v.JobID)
		}
		fmt.Fprintf(w, "[%s] %s job=%s %s\n", v.Severity, v.Code, job, v.Message)
	}
}
