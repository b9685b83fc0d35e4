package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mayank7Bisnewar/Tenant/internal/app"
	"github.com/Mayank7Bisnewar/Tenant/internal/auth"
)

func AuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Owner account and cloud sync session",
	}
	cmd.AddCommand(authRegisterCmd(), authLoginCmd(), authLogoutCmd(), authStatusCmd())
	return cmd
}

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
}

func printSignedIn(cmd *cobra.Command, a *app.App, claims *auth.Claims) {
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (sync: %s, %d tenants)\n",
		claims.Email, a.Repo.State(), len(a.Repo.All()))
}

func authRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an owner account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			name, _ := cmd.Flags().GetString("name")

			return withApp(cmd, runOpts{skipResume: true}, func(ctx context.Context, a *app.App) error {
				claims, err := a.Register(ctx, email, name, password)
				if err != nil {
					return err
				}
				printSignedIn(cmd, a, claims)
				return nil
			})
		},
	}
	credentialFlags(cmd)
	cmd.Flags().String("name", "", "Display name")
	return cmd
}

func authLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and sync tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			return withApp(cmd, runOpts{skipResume: true}, func(ctx context.Context, a *app.App) error {
				claims, err := a.SignIn(ctx, email, password)
				if err != nil {
					return err
				}
				printSignedIn(cmd, a, claims)
				return nil
			})
		},
	}
	credentialFlags(cmd)
	return cmd
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Stop syncing and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{skipResume: true}, func(ctx context.Context, a *app.App) error {
				if err := a.SignOut(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out; local data is kept")
				return nil
			})
		},
	}
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in owner and sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, runOpts{skipResume: true}, func(ctx context.Context, a *app.App) error {
				claims, err := a.Resume(ctx)
				if err != nil {
					return err
				}
				if claims == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
					return nil
				}
				printSignedIn(cmd, a, claims)
				return nil
			})
		},
	}
}
