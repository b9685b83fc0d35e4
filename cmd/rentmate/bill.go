package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Mayank7Bisnewar/Tenant/internal/app"
	"github.com/Mayank7Bisnewar/Tenant/internal/calculator"
	"github.com/Mayank7Bisnewar/Tenant/internal/message"
)

func BillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Compute and send bills",
	}
	cmd.AddCommand(billShowCmd(), billTotalCmd(), billSendCmd())
	return cmd
}

func printBill(w io.Writer, bill calculator.Bill) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tenant\t%s (Room %s)\n", bill.TenantName, bill.RoomNumber)
	fmt.Fprintf(tw, "Month\t%s\n", bill.BillingMonth())
	fmt.Fprintf(tw, "Rent\t%s\n", message.Amount(bill.MonthlyRent))
	fmt.Fprintf(tw, "Electricity\t%d units x %s = %s\n",
		bill.ElectricityUnits, message.Amount(bill.ElectricityRate), message.Amount(bill.ElectricityCharges))
	fmt.Fprintf(tw, "Water\t%s\n", message.Amount(bill.WaterBill))
	if bill.ExtraCharges > 0 {
		fmt.Fprintf(tw, "Extra\t%s\n", message.Amount(bill.ExtraCharges))
	}
	fmt.Fprintf(tw, "Total\t%s\n", message.Amount(bill.TotalAmount))
	tw.Flush()
}

func billShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <tenant-id>",
		Short: "Show a tenant's current bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showMessage, _ := cmd.Flags().GetBool("message")

			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				tenant, err := resolveTenant(a, args[0])
				if err != nil {
					return err
				}
				bill, ok := a.Billing.Bill(tenant.ID)
				if !ok {
					return fmt.Errorf("%s is deleted and cannot be billed", tenant.Name)
				}

				out := cmd.OutOrStdout()
				printBill(out, bill)
				if showMessage {
					text, link := a.Billing.Message(ctx, bill)
					fmt.Fprintf(out, "\n%s\n", text)
					if link != "" {
						fmt.Fprintf(out, "\n%s\n", link)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("message", false, "Also print the message text and link")
	return cmd
}

func billTotalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "total [tenant-id...]",
		Short: "Sum the bills of the given tenants, or of all active tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				ids := make([]string, 0, len(args))
				for _, arg := range args {
					tenant, err := resolveTenant(a, arg)
					if err != nil {
						return err
					}
					ids = append(ids, tenant.ID)
				}

				bills := a.Billing.Bills(ids)
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				for _, b := range bills {
					fmt.Fprintf(w, "%s\t%s\t%s\n", b.TenantName, b.BillingMonth(), message.Amount(b.TotalAmount))
				}
				fmt.Fprintf(w, "Total (%d)\t\t%s\n", len(bills), message.Amount(calculator.SelectedTotal(bills)))
				return w.Flush()
			})
		},
	}
}

func billSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <tenant-id>...",
		Short: "Send bills and record the payments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{}, func(ctx context.Context, a *app.App) error {
				for _, arg := range args {
					tenant, err := resolveTenant(a, arg)
					if err != nil {
						return err
					}

					res, found, err := a.Billing.SendAndRecord(ctx, tenant.ID)
					if !found {
						return fmt.Errorf("%s is deleted and cannot be billed", tenant.Name)
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s (%s)\n",
						tenant.Name, res.Bill.BillingMonth(), message.Amount(res.Record.Amount), res.Outcome)
				}
				return nil
			})
		},
	}
}
