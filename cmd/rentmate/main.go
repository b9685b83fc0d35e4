package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mayank7Bisnewar/Tenant/internal/app"
	"github.com/Mayank7Bisnewar/Tenant/internal/config"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/notify"
	"github.com/Mayank7Bisnewar/Tenant/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rentmate",
		Short:         "Rent billing for a single residence",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		TenantCmd(),
		DraftCmd(),
		BillCmd(),
		PaymentCmd(),
		OwnerCmd(),
		SheetsCmd(),
		AuthCmd(),
		SyncCmd(),
	)
	return rootCmd
}

// runOpts tweak how withApp builds the application.
type runOpts struct {
	app.Options

	// skipResume leaves the stored session alone (auth commands manage it).
	skipResume bool
}

// withApp loads configuration, builds the app, resumes the stored session
// and runs fn. The app is always closed so drafts and pushes are flushed.
func withApp(cmd *cobra.Command, opts runOpts, fn func(ctx context.Context, a *app.App) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	if opts.Out == nil {
		opts.Out = cmd.OutOrStdout()
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger, opts.Options)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
			err = closeErr
		}
		printNotices(cmd.ErrOrStderr(), a.Notices.Notices())
	}()

	if !opts.skipResume {
		if _, err := a.Resume(ctx); err != nil {
			// Local data is still usable; report and carry on.
			logger.Warn("Failed to resume cloud sync", "error", err)
		}
	}

	return fn(ctx, a)
}

func printNotices(w io.Writer, notices []notify.Notice) {
	for _, n := range notices {
		prefix := "ok"
		if n.Level == notify.LevelError {
			prefix = "error"
		}
		line := fmt.Sprintf("[%s] %s", prefix, n.Title)
		if n.Description != "" {
			line += ": " + n.Description
		}
		if n.Retryable {
			line += " (retry with 'rentmate payment retry')"
		}
		fmt.Fprintln(w, line)
	}
}

// resolveTenant finds a tenant by ID or unique ID prefix.
func resolveTenant(a *app.App, arg string) (models.Tenant, error) {
	if t, ok := a.Repo.Get(arg); ok {
		return t, nil
	}

	var matches []models.Tenant
	for _, t := range a.Repo.All() {
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Tenant{}, fmt.Errorf("no tenant matches %q", arg)
	default:
		return models.Tenant{}, fmt.Errorf("%q matches %d tenants, use a longer prefix", arg, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
