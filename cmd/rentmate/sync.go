package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mayank7Bisnewar/Tenant/internal/app"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/repository"
)

func SyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Cloud sync",
	}
	cmd.AddCommand(syncWatchCmd())
	return cmd
}

func syncWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow remote changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			opts := runOpts{}
			opts.OnSnapshot = func(tenants []models.Tenant) {
				active := 0
				for _, t := range tenants {
					if t.IsActive() {
						active++
					}
				}
				fmt.Fprintf(out, "Remote update: %d tenants (%d active)\n", len(tenants), active)
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if a.Repo.State() != repository.StateSynced {
					return errors.New("not syncing; sign in with a remote configured first")
				}
				fmt.Fprintf(out, "Watching %s, press Ctrl+C to stop\n", a.Repo.OwnerID())
				<-ctx.Done()
				return nil
			})
		},
	}
}
