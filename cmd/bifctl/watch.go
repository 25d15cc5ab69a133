package main

import (
	"fmt"

	"bif_backend/internal/logger"
	"bif_backend/internal/poller"

	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var (
		baseURL  string
		attempts int
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "watch [invoice-id]",
		Short: "Poll a running server until the invoice is paid",
		Long: `Follows the same protocol as the payment form: GET /status every second
for up to 60 attempts, and after the 30th attempt also POST /verify-payment
up to 3 times. Failed requests are retried after 1.5s.

Examples:
  bifctl watch inv_123 --url https://example.com/bif/v1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Init("development", logLevel)

			ctx, stop := signalContext()
			defer stop()

			cfg := poller.DefaultConfig(baseURL)
			if attempts > 0 {
				cfg.MaxAttempts = attempts
			}

			res, err := poller.New(cfg).Watch(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Paid {
				fmt.Fprintf(out, "paid after %d attempts (confirmed by %s)\n", res.Attempts, res.VerifiedBy)
				return nil
			}
			fmt.Fprintf(out, "not paid after %d attempts, last status %q; payment may still be processing\n", res.Attempts, res.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&baseURL, "url", "u", "http://localhost:8080", "API base URL")
	cmd.Flags().IntVarP(&attempts, "attempts", "n", 0, "maximum status checks (default 60)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug shows every attempt)")
	return cmd
}
