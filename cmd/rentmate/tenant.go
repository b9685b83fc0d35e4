package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Mayank7Bisnewar/Tenant/internal/app"
	"github.com/Mayank7Bisnewar/Tenant/internal/message"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/service"
)

func TenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}
	cmd.AddCommand(
		tenantAddCmd(),
		tenantListCmd(),
		tenantEditCmd(),
		tenantLifecycleCmd("delete", "Move a tenant to the deleted list", func(ctx context.Context, a *app.App, id string) (bool, error) {
			return a.Tenants.Delete(ctx, id)
		}),
		tenantLifecycleCmd("restore", "Restore a deleted tenant", func(ctx context.Context, a *app.App, id string) (bool, error) {
			return a.Tenants.Restore(ctx, id)
		}),
		tenantLifecycleCmd("purge", "Permanently delete a tenant and its history", func(ctx context.Context, a *app.App, id string) (bool, error) {
			return a.Tenants.Purge(ctx, id)
		}),
		tenantReorderCmd(),
	)
	return cmd
}

func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Tenant name")
	cmd.Flags().String("room", "", "Room number")
	cmd.Flags().String("mobile", "", "10-digit mobile number")
	cmd.Flags().Float64("rent", 0, "Monthly rent")
	cmd.Flags().Float64("water", 0, "Monthly water bill")
}

// applyFieldFlags overrides fields with every flag the user set.
func applyFieldFlags(cmd *cobra.Command, fields *models.TenantFields) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		fields.Name, _ = flags.GetString("name")
	}
	if flags.Changed("room") {
		fields.RoomNumber, _ = flags.GetString("room")
	}
	if flags.Changed("mobile") {
		fields.MobileNumber, _ = flags.GetString("mobile")
	}
	if flags.Changed("rent") {
		fields.MonthlyRent, _ = flags.GetFloat64("rent")
	}
	if flags.Changed("water") {
		fields.WaterBill, _ = flags.GetFloat64("water")
	}
}

func tenantAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				var fields models.TenantFields
				applyFieldFlags(cmd, &fields)

				tenant, err := a.Tenants.Add(ctx, fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", tenant.Name, tenant.ID)
				return nil
			})
		},
	}
	addFieldFlags(cmd)
	return cmd
}

func tenantListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, _ := cmd.Flags().GetBool("deleted")
			all, _ := cmd.Flags().GetBool("all")

			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenants := a.Repo.Active()
				switch {
				case all:
					tenants = a.Repo.All()
				case deleted:
					tenants = a.Repo.Deleted()
				}
				printTenants(cmd, tenants)
				return nil
			})
		},
	}
	cmd.Flags().Bool("deleted", false, "Show deleted tenants only")
	cmd.Flags().Bool("all", false, "Show active and deleted tenants")
	return cmd
}

func printTenants(cmd *cobra.Command, tenants []models.Tenant) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROOM\tMOBILE\tRENT\tWATER\tSTATUS\tPAYMENTS")
	for _, t := range tenants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			shortID(t.ID), t.Name, t.RoomNumber, t.MobileNumber,
			message.Amount(t.MonthlyRent), message.Amount(t.WaterBill), t.Status, len(t.PaymentHistory))
	}
	w.Flush()
}

func tenantEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <tenant-id>",
		Short: "Edit a tenant's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenant, err := resolveTenant(a, args[0])
				if err != nil {
					return err
				}

				fields := service.Fields(tenant)
				applyFieldFlags(cmd, &fields)

				updated, _, err := a.Tenants.Edit(ctx, tenant.ID, fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", updated.Name)
				return nil
			})
		},
	}
	addFieldFlags(cmd)
	return cmd
}

func tenantLifecycleCmd(use, short string, action func(context.Context, *app.App, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tenant-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenant, err := resolveTenant(a, args[0])
				if err != nil {
					return err
				}
				if _, err := action(ctx, a, tenant.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", use, tenant.Name)
				return nil
			})
		},
	}
}

func tenantReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <tenant-id>...",
		Short: "Move the given tenants to the front, in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				ids := make([]string, len(args))
				for i, arg := range args {
					tenant, err := resolveTenant(a, arg)
					if err != nil {
						return err
					}
					ids[i] = tenant.ID
				}
				if err := a.Tenants.Reorder(ctx, ids); err != nil {
					return err
				}
				printTenants(cmd, a.Repo.All())
				return nil
			})
		},
	}
}
