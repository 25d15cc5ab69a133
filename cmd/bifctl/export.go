package main

import (
	"fmt"
	"time"

	"bif_backend/internal/models"
	"bif_backend/internal/repositories"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func exportCmd() *cobra.Command {
	var (
		status   string
		provider string
		email    string
		formID   uint64
		from     string
		to       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions to CSV in the configured storage",
		Long: `Writes all matching transactions to a CSV file in the configured storage
(local directory, S3 or R2) and prints its URL.

Examples:
  bifctl export --status paid
  bifctl export --from 2024-01-01 --to 2024-01-31 --form 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria := repositories.InvoiceCriteria{
				Status:   models.PaymentStatus(status),
				Provider: models.ProviderName(provider),
				Email:    email,
				FormID:   formID,
			}
			var err error
			if criteria.DateFrom, err = parseDate(from); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if criteria.DateTo, err = parseDate(to); err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			ctx, stop := signalContext()
			defer stop()

			application, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer application.Close()

			export, err := application.Services.TransactionService.ExportCSV(ctx, application.DB, criteria)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", export.Rows, export.URL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "payment status (unpaid, paid, failed)")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "payment provider (coinsnap, btcpay)")
	cmd.Flags().StringVar(&email, "email", "", "customer email")
	cmd.Flags().Uint64Var(&formID, "form", 0, "form id")
	cmd.Flags().StringVar(&from, "from", "", "created on or after, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "created on or before, YYYY-MM-DD")
	return cmd
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
