package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mayank7Bisnewar/Tenant/internal/app"
)

const dateFlagLayout = "2006-01-02"

func DraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Edit the billing inputs of a tenant",
	}
	cmd.AddCommand(draftShowCmd(), draftSetCmd(), draftResetCmd())
	return cmd
}

func draftShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <tenant-id>",
		Short: "Show a tenant's billing inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenant, err := resolveTenant(a, args[0])
				if err != nil {
					return err
				}
				d := a.Drafts.Get(tenant.ID)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Tenant:            %s\n", tenant.Name)
				fmt.Fprintf(out, "Electricity units: %d\n", d.ElectricityUnits)
				fmt.Fprintf(out, "Extra charges:     %.2f\n", d.ExtraCharges)
				fmt.Fprintf(out, "Billing date:      %s\n", d.BillingDate.Format(dateFlagLayout))
				return nil
			})
		},
	}
}

func draftSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <tenant-id>",
		Short: "Set a tenant's billing inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			var date time.Time
			if flags.Changed("date") {
				raw, _ := flags.GetString("date")
				parsed, err := time.ParseInLocation(dateFlagLayout, raw, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", raw)
				}
				date = parsed
			}

			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenant, err := resolveTenant(a, args[0])
				if err != nil {
					return err
				}
				if flags.Changed("units") {
					units, _ := flags.GetInt("units")
					a.Drafts.SetElectricityUnits(tenant.ID, units)
				}
				if flags.Changed("extra") {
					extra, _ := flags.GetFloat64("extra")
					a.Drafts.SetExtraCharges(tenant.ID, extra)
				}
				if !date.IsZero() {
					a.Drafts.SetBillingDate(tenant.ID, date)
				}

				if bill, ok := a.Billing.Bill(tenant.ID); ok {
					printBill(cmd.OutOrStdout(), bill)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("units", 0, "Electricity units consumed")
	cmd.Flags().Float64("extra", 0, "Extra charges")
	cmd.Flags().String("date", "", "Billing date (YYYY-MM-DD)")
	return cmd
}

func draftResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <tenant-id>",
		Short: "Reset a tenant's billing inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenant, err := resolveTenant(a, args[0])
				if err != nil {
					return err
				}
				a.Drafts.Reset(tenant.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Reset billing inputs for %s\n", tenant.Name)
				return nil
			})
		},
	}
}
