package main

import (
	"fmt"
	"time"

	"bif_backend/internal/workers"

	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var (
		maxAge time.Duration
		batch  int
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Re-check unpaid invoices with the payment processor once",
		Long: `Runs a single pass of the reconcile worker: every unpaid invoice younger than
--max-age is checked with its processor, and paid invoices are marked and notified.

Examples:
  bifctl reconcile
  bifctl reconcile --max-age 72h --batch 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			application, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer application.Close()

			if maxAge == 0 {
				maxAge = application.Config.Workers.ReconcileMaxAge
			}
			if batch == 0 {
				batch = application.Config.Workers.ReconcileBatch
			}

			w := workers.NewReconcileWorker(application.DB, application.Services.PaymentService, 0, maxAge, batch)
			report := w.RunOnce(ctx)
			if report == nil {
				return fmt.Errorf("reconcile failed, see log")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d paid=%d failed=%d\n", report.Checked, report.Paid, report.Failed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "only invoices created within this window (default from config)")
	cmd.Flags().IntVarP(&batch, "batch", "n", 0, "maximum invoices per pass (default from config)")
	return cmd
}
