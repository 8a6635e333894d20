package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/cache"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/catalog"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/config"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/ingest"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/logging"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/loyverse"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/notify"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/reconcile"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/service"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store/memory"
	pgstore "github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries state from the root command's pre-run into the subcommands.
type cli struct {
	envFile string
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "backoffice",
		Short:        "Shift reconciliation back office",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", c.envFile, err)
			}
			c.cfg = config.Load()

			logger, err := logging.New(c.cfg.LogLevel, c.cfg.LogFormat)
			if err != nil {
				return err
			}
			c.logger = logger
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newServeCmd(c),
		newSyncCmd(c),
		newRecheckCmd(c),
		newReportCmd(c),
		newMigrateCmd(c),
	)
	return root
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.LoyverseWebhookSecret != "" && len(cfg.LoyverseWebhookSecret) < 16 {
		return fmt.Errorf("LOYVERSE_WEBHOOK_SECRET must be at least 16 characters when set")
	}
	return nil
}

// app is the wired dependency graph shared by every subcommand.
type app struct {
	repo    store.Repository
	locker  cache.Locker
	svc     *service.Service
	closers []func() error
}

func (a *app) Close(logger *zap.Logger) {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback: %w", err)
		}
		if err := pg.Migrate(connectCtx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.repo = pg
		a.closers = append(a.closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		a.repo = memory.NewSeeded()
		logger.Info("repository: in-memory")
	}

	reconCache := cache.ReconciliationCache(cache.NoopReconciliationCache{})
	a.locker = cache.NewLocalLocker()
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(connectCtx).Err(); err != nil {
			logger.Warn("redis unavailable, using noop cache and local lock", zap.Error(err))
			_ = client.Close()
		} else {
			reconCache = cache.NewRedisReconciliationCache(client)
			a.locker = cache.NewRedisLocker(client)
			a.closers = append(a.closers, client.Close)
			logger.Info("cache: redis")
		}
	} else {
		logger.Info("cache: noop")
	}

	var source ingest.ReceiptSource
	if cfg.LoyverseToken != "" {
		source = loyverse.NewClient(loyverse.Config{
			BaseURL: cfg.LoyverseBaseURL,
			Token:   cfg.LoyverseToken,
			StoreID: cfg.LoyverseStoreID,
			Timeout: cfg.LoyverseTimeout,
		})
	} else {
		logger.Warn("LOYVERSE_API_TOKEN not set; pulls are disabled, webhook pushes still work")
	}

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	a.svc = service.New(service.Options{
		Repo:       a.repo,
		Cache:      reconCache,
		CacheTTL:   cfg.ReconCacheTTL(),
		Portions:   catalog.New(catalog.Options{Path: cfg.MenuCatalogPath}),
		Ingester:   ingest.New(source, a.repo, logger),
		Mailer:     mailer,
		Recipients: cfg.ReportRecipients,
		Calculator: reconcile.NewCalculator(cfg.CashToleranceCents),
		Logger:     logger,
	})
	return a, nil
}
