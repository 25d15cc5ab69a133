package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [invoice-id|transaction-id]",
		Short: "Ask the processor for the current status of one invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			application, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer application.Close()

			status, err := application.Services.PaymentService.VerifyPayment(ctx, application.DB, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invoice=%s paid=%t status=%s\n", status.InvoiceID, status.Paid, status.Status)
			return nil
		},
	}
}
