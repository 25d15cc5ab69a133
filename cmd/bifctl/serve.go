package main

import (
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			application, err := bootstrap(ctx, !skipMigrate)
			if err != nil {
				return err
			}
			defer application.Close()

			application.StartWorkers(ctx)
			return application.Serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run schema migration on start")
	return cmd
}
