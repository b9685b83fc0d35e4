package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Mayank7Bisnewar/Tenant/internal/app"
	"github.com/Mayank7Bisnewar/Tenant/internal/message"
)

func PaymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Inspect and manage payment history",
	}
	cmd.AddCommand(paymentListCmd(), paymentDeleteCmd(), paymentRetryCmd())
	return cmd
}

func paymentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <tenant-id>",
		Short: "List a tenant's payments, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenant, err := resolveTenant(a, args[0])
				if err != nil {
					return err
				}
				history, _ := a.Ledger.History(tenant.ID)

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tMONTH\tRECORDED\tAMOUNT\tSYNCED")
				for _, rec := range history {
					synced := "no"
					if rec.SyncedToSheets {
						synced = "yes"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						shortID(rec.ID), rec.BillingMonth, rec.Date.Format(dateFlagLayout), message.Amount(rec.Amount), synced)
				}
				return w.Flush()
			})
		},
	}
}

// resolveRecord finds a record by ID or unique ID prefix.
func resolveRecord(a *app.App, tenantID, arg string) (string, error) {
	history, _ := a.Ledger.History(tenantID)
	var match string
	for _, rec := range history {
		if rec.ID == arg {
			return rec.ID, nil
		}
		if strings.HasPrefix(rec.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("%q matches several payments, use a longer prefix", arg)
			}
			match = rec.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no payment matches %q", arg)
	}
	return match, nil
}

func paymentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tenant-id> <payment-id>",
		Short: "Delete a payment record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenant, err := resolveTenant(a, args[0])
				if err != nil {
					return err
				}
				recordID, err := resolveRecord(a, tenant.ID, args[1])
				if err != nil {
					return err
				}
				if _, err := a.Ledger.DeleteRecord(ctx, tenant.ID, recordID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted payment %s\n", shortID(recordID))
				return nil
			})
		},
	}
}

func paymentRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <tenant-id> <payment-id>",
		Short: "Push a payment record to the spreadsheet again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenant, err := resolveTenant(a, args[0])
				if err != nil {
					return err
				}
				recordID, err := resolveRecord(a, tenant.ID, args[1])
				if err != nil {
					return err
				}
				if _, err := a.Billing.RetrySync(ctx, tenant.ID, recordID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Payment %s is synced\n", shortID(recordID))
				return nil
			})
		},
	}
}
