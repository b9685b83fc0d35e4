package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mayank7Bisnewar/Tenant/internal/app"
)

func SheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Spreadsheet webhook settings",
	}
	cmd.AddCommand(sheetsURLCmd(), sheetsTestCmd())
	return cmd
}

func sheetsURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url [webhook-url]",
		Short: "Show or set the spreadsheet webhook URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearURL, _ := cmd.Flags().GetBool("clear")

			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				switch {
				case clearURL:
					if err := a.Settings.SetSheetsURL(ctx, ""); err != nil {
						return err
					}
					fmt.Fprintln(out, "Spreadsheet sync disabled")
				case len(args) == 1:
					if err := a.Settings.SetSheetsURL(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(out, "Spreadsheet URL saved")
				default:
					url := a.Settings.SheetsURL(ctx)
					if url == "" {
						url = "(not configured)"
					}
					fmt.Fprintln(out, url)
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("clear", false, "Remove the stored URL")
	return cmd
}

func sheetsTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [webhook-url]",
		Short: "Append a test row to the spreadsheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				var url string
				if len(args) == 1 {
					url = args[0]
				}
				return a.Billing.TestSheets(ctx, url)
			})
		},
	}
}
