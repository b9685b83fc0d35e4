// Package app is the composition root: it builds every component from the
// configuration and owns their lifetimes.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/Mayank7Bisnewar/Tenant/internal/auth"
	"github.com/Mayank7Bisnewar/Tenant/internal/config"
	"github.com/Mayank7Bisnewar/Tenant/internal/drafts"
	"github.com/Mayank7Bisnewar/Tenant/internal/ledger"
	"github.com/Mayank7Bisnewar/Tenant/internal/message"
	"github.com/Mayank7Bisnewar/Tenant/internal/metrics"
	"github.com/Mayank7Bisnewar/Tenant/internal/middleware"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/notify"
	"github.com/Mayank7Bisnewar/Tenant/internal/remote"
	"github.com/Mayank7Bisnewar/Tenant/internal/remote/postgres"
	"github.com/Mayank7Bisnewar/Tenant/internal/remote/redis"
	"github.com/Mayank7Bisnewar/Tenant/internal/repository"
	"github.com/Mayank7Bisnewar/Tenant/internal/service"
	"github.com/Mayank7Bisnewar/Tenant/internal/settings"
	"github.com/Mayank7Bisnewar/Tenant/internal/sheets"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage/sqlite"
)

const syncTimeout = 15 * time.Second

// Options are the process-level hooks the caller provides.
type Options struct {
	// Out receives message deep links.
	Out io.Writer

	// OnSnapshot is called after every applied remote snapshot.
	OnSnapshot func([]models.Tenant)
}

// App wires the billing core together.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Notices  *notify.Recorder

	Store    storage.Store
	Remote   remote.Directory
	Repo     *repository.Repository
	Drafts   *drafts.Store
	Ledger   *ledger.Ledger
	Settings *settings.Settings
	Sessions *auth.Sessions
	Tenants  *service.TenantService
	Billing  *service.BillingService

	draftSlot   *drafts.StateSlot
	closeRemote func() error
}

// New opens local storage and the configured remote and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Debug("Storage initialized", "database", cfg.DBPath)

	if err := storage.MigrateLegacyKeys(ctx, store, logger); err != nil {
		store.Close()
		return nil, err
	}

	dir, closeRemote, err := openRemote(ctx, cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &App{
		Config:      cfg,
		Logger:      logger,
		Registry:    prometheus.NewRegistry(),
		Notices:     &notify.Recorder{},
		Store:       store,
		Remote:      dir,
		closeRemote: closeRemote,
	}
	a.Metrics = metrics.New(a.Registry)
	notifier := notify.Multi{notify.NewLogNotifier(logger), a.Notices}

	repoOpts := []repository.Option{
		repository.WithLogger(logger),
		repository.WithMetrics(a.Metrics),
		repository.WithPushTimeout(cfg.PushTimeout),
		repository.WithErrorSink(func(err error) {
			notifier.Notify(context.Background(), notify.Notice{
				Level:       notify.LevelError,
				Title:       "Cloud sync failed",
				Description: err.Error(),
				Retryable:   true,
			})
		}),
	}
	if opts.OnSnapshot != nil {
		repoOpts = append(repoOpts, repository.WithSnapshotHook(opts.OnSnapshot))
	}
	a.Repo = repository.New(ctx, store, dir, repoOpts...)

	a.Drafts = drafts.New()
	a.draftSlot = drafts.NewStateSlot(store, logger)
	a.Drafts.Load(ctx, a.draftSlot)

	a.Ledger = ledger.New(a.Repo, logger, a.Metrics)
	a.Settings = settings.New(store, logger)

	jwtManager := auth.NewJWTManager(cfg.SessionSecret(), cfg.SessionTTL)
	authenticator := auth.NewPasswordAuthenticator(auth.NewStoreAccounts(store, logger))
	a.Sessions = auth.NewSessions(authenticator, jwtManager, store, logger)

	sheetsClient := sheets.NewClient(
		&http.Client{
			Timeout:   cfg.SheetsTimeout,
			Transport: middleware.LoggingTransport(http.DefaultTransport, logger),
		},
		rate.NewLimiter(rate.Limit(cfg.SheetsRateLimit), cfg.SheetsBurst),
		logger,
	)

	a.Tenants = service.NewTenantService(a.Repo, a.Drafts, logger)
	a.Billing = service.NewBillingService(a.Repo, a.Drafts, a.Ledger, a.Settings,
		sheetsClient, message.WriterOpener{W: opts.Out}, notifier, a.Metrics, logger,
		service.BillingOptions{ElectricityRate: cfg.ElectricityRate, CountryCode: cfg.CountryCode})

	return a, nil
}

func openRemote(ctx context.Context, cfg *config.Config, logger *slog.Logger) (remote.Directory, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Remote {
	case config.RemoteMemory:
		return remote.NewMemory(), noop, nil
	case config.RemoteRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Debug("Remote directory connected", "backend", "redis", "addr", cfg.RedisAddr)
		return redis.NewDirectory(client, logger, cfg.RedisPrefix), client.Close, nil
	case config.RemotePostgres:
		dir, err := postgres.Open(ctx, cfg.PostgresURL, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Remote directory connected", "backend", "postgres")
		return dir, dir.Close, nil
	default:
		return nil, noop, nil
	}
}

// Resume restores the stored session, if any, and syncs with the remote.
// It returns nil claims when nobody is signed in.
func (a *App) Resume(ctx context.Context) (*auth.Claims, error) {
	claims, err := a.Sessions.Current(ctx)
	if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claims, a.startSync(ctx, claims)
}

// Register creates an owner account, signs it in and syncs.
func (a *App) Register(ctx context.Context, email, displayName, password string) (*auth.Claims, error) {
	claims, err := a.Sessions.Register(ctx, email, displayName, password)
	if err != nil {
		return nil, err
	}
	return claims, a.startSync(ctx, claims)
}

// SignIn authenticates the owner and syncs.
func (a *App) SignIn(ctx context.Context, email, password string) (*auth.Claims, error) {
	claims, err := a.Sessions.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return claims, a.startSync(ctx, claims)
}

// SignOut stops syncing and forgets the stored session.
func (a *App) SignOut(ctx context.Context) error {
	a.Repo.SignOut()
	return a.Sessions.SignOut(ctx)
}

// startSync signs the repository in when a remote is configured. Without a
// remote the session only identifies the owner.
func (a *App) startSync(ctx context.Context, claims *auth.Claims) error {
	if a.Remote == nil {
		return nil
	}
	if err := a.Repo.SignIn(ctx, claims.OwnerID()); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	if err := a.Repo.AwaitSync(ctx); err != nil {
		return fmt.Errorf("failed to complete initial sync: %w", err)
	}
	return nil
}

// Close waits for background pushes, saves the drafts and releases resources.
func (a *App) Close(ctx context.Context) error {
	a.Billing.Wait()
	a.Repo.Close()

	var errs []error
	if err := a.Drafts.Save(ctx, a.draftSlot); err != nil {
		errs = append(errs, err)
	}
	if path := a.Config.MetricsTextfile; path != "" {
		if err := prometheus.WriteToTextfile(path, a.Registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	if err := a.closeRemote(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close remote: %w", err))
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}
	return errors.Join(errs...)
}
