package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mayank7Bisnewar/Tenant/internal/app"
)

func OwnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Owner details shown in bill messages",
	}
	cmd.AddCommand(ownerShowCmd(), ownerSetCmd())
	return cmd
}

func ownerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the owner details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				owner := a.Settings.Owner(ctx)
				out := cmd.OutOrStdout()
				if owner.IsEmpty() {
					fmt.Fprintln(out, "No owner details set")
					return nil
				}
				fmt.Fprintf(out, "Name:   %s\nMobile: %s\nUPI ID: %s\n", owner.Name, owner.MobileNumber, owner.UPIID)
				return nil
			})
		},
	}
}

func ownerSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the owner details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				owner := a.Settings.Owner(ctx)
				if flags.Changed("name") {
					owner.Name, _ = flags.GetString("name")
				}
				if flags.Changed("mobile") {
					owner.MobileNumber, _ = flags.GetString("mobile")
				}
				if flags.Changed("upi") {
					owner.UPIID, _ = flags.GetString("upi")
				}

				saved, err := a.Billing.SaveOwner(ctx, owner)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved owner details for %s\n", saved.Name)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "Owner name")
	cmd.Flags().String("mobile", "", "Owner mobile number")
	cmd.Flags().String("upi", "", "UPI ID for payments")
	return cmd
}
