package main

import (
	"fmt"
	"text/tabwriter"

	"bif_backend/internal/providers"
	"bif_backend/internal/services"

	"github.com/spf13/cobra"
)

func formsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List configured forms with the amount a customer would be charged",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			forms := services.NewFormService(cfg, providers.NewRegistry(cfg.Providers))
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tAMOUNT\tPREVIEW\tPROVIDER")
			for _, form := range forms.ListForms() {
				public, err := forms.GetPublicForm(form.ID)
				if err != nil {
					// форма неподдерживаемого типа, создание инвойса по ней отклоняется
					fmt.Fprintf(tw, "%d\t%s\t%s\t-\t-\t-\n", form.ID, form.Type, form.Title)
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s %s\t%s\t%s\n",
					form.ID, form.Type, form.Title,
					public.Amount, public.Currency, public.PreviewAmount, public.Provider)
			}
			return tw.Flush()
		},
	}
}
