package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stampbot/internal/api"
	"stampbot/internal/config"
	"stampbot/internal/database"
	"stampbot/internal/history"
	"stampbot/internal/logger"
	"stampbot/internal/ratelimit"
	"stampbot/internal/settings"
	"stampbot/internal/telegram"
	"stampbot/internal/validation"
	"stampbot/internal/watermarking"
	"stampbot/internal/watermarking/overlay"
	"stampbot/internal/worker"

	//Import registered hashing algorithms here
	_ "stampbot/internal/hashing/md5"
	_ "stampbot/internal/hashing/sha256"
)

const (
	shutdownTimeout = 10 * time.Second
	historyLimit    = 1000
	limiterIdle     = 10 * time.Minute
)

func main() {
	os.Exit(start())
}

// start returns the process exit code once every deferred cleanup has run.
func start() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log := logger.New(logger.Config{Environment: cfg.Environment, Level: cfg.LogLevel})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("stampbot exited with error", zap.Error(err))
		return 1
	}
	log.Info("stampbot exiting gracefully")
	return 0
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// The overlay engine registers itself from TEMP_DIR; rebind it so the
	// -temp-dir flag wins.
	watermarking.Register(overlay.Algorithm, overlay.New(cfg.Worker.TempDir))
	engine, err := watermarking.GetWatermarker(cfg.WatermarkEngine)
	if err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if cfg.Settings.DatabaseURL != "" {
		pool, err = database.NewPostgresPool(ctx, cfg.Settings.DatabaseURL, log)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
	}

	store, watcher, err := openSettings(ctx, cfg, pool, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var ledger history.Store = history.NewMemory(historyLimit)
	if pool != nil {
		if ledger, err = history.OpenPostgres(ctx, pool); err != nil {
			return err
		}
	}

	v := validation.New()
	queue := worker.NewQueue(cfg.Worker.QueueSize, engine, log.Named("worker")).WithHistory(ledger)

	chatLimiter := ratelimit.New(cfg.Worker.UploadRate, cfg.Worker.UploadBurst, limiterIdle)
	defer chatLimiter.Stop()
	apiLimiter := ratelimit.New(cfg.Worker.UploadRate, cfg.Worker.UploadBurst, limiterIdle)
	defer apiLimiter.Stop()

	handlers := telegram.NewHandlers(telegram.Deps{
		Settings:        settings.NewManager(store, v),
		Queue:           queue,
		Limiter:         chatLimiter,
		Downloader:      telegram.NewDownloader(cfg.Bot.APIURL, cfg.Bot.Token, cfg.Worker.MaxFileSize),
		Log:             log.Named("telegram"),
		ArchiveChatID:   cfg.Bot.ArchiveChatID,
		RequireSettings: cfg.Bot.RequireSettings,
		MaxFileSize:     cfg.Worker.MaxFileSize,
	})
	b, err := telegram.NewBot(cfg, handlers)
	if err != nil {
		return err
	}
	runner := &telegram.Runner{Bot: b, Cfg: cfg, Log: log.Named("telegram")}

	// Set up the router and API handlers
	router := api.NewRouter(api.Deps{
		Queue:         queue,
		History:       ledger,
		Validator:     v,
		Limiter:       apiLimiter,
		Log:           log.Named("http"),
		MaxUploadSize: cfg.Worker.MaxFileSize,
		Webhook:       runner.WebhookHandler(),
		WebhookSecret: cfg.Bot.WebhookSecret,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return queue.Run(gctx)
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	if watcher != nil {
		g.Go(func() error {
			return watcher.Watch(gctx)
		})
	}
	g.Go(func() error {
		log.Info("starting server", zap.String("port", cfg.Port), zap.String("mode", cfg.Bot.Mode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// openSettings picks Postgres when a pool is available and the JSON file
// otherwise. The file store is also returned as the watcher when
// SETTINGS_WATCH is on.
func openSettings(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *zap.Logger) (settings.Store, *settings.FileStore, error) {
	if pool != nil {
		store, err := settings.OpenPostgresStore(ctx, pool)
		if err != nil {
			return nil, nil, err
		}
		log.Info("settings stored in postgres")
		return store, nil, nil
	}

	store, err := settings.OpenFileStore(cfg.Settings.File, log.Named("settings"))
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Settings.Watch {
		return store, nil, nil
	}
	return store, store, nil
}
