// @title           Droply API
// @version         1.0
// @description     Personal file drive: folders, image and PDF uploads, stars, trash and bulk actions.
// @host            localhost:8080
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"droply/internal/api"
	"droply/internal/batch"
	"droply/internal/config"
	"droply/internal/database"
	"droply/internal/drive"
	"droply/internal/events"
	"droply/internal/kvstore"
	"droply/internal/logging"
	"droply/internal/storage"
	"droply/internal/websocket"

	"github.com/jackc/pgx/v5/pgxpool"

	_ "droply/docs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("cannot load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// repositories is what the selected database driver provides. accounts and
// journal are nil for the embedded store.
type repositories struct {
	nodes    drive.NodeRepository
	health   api.Pinger
	accounts api.Accounts
	journal  events.Journal
	close    func()
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	switch cfg.DB.Driver {
	case "badger":
		store, err := kvstore.Open(cfg.Badger.Path, cfg.Badger.InMemory)
		if err != nil {
			return nil, fmt.Errorf("cannot open node store: %w", err)
		}
		logger.Info("using embedded node store", "path", cfg.Badger.Path, "in_memory", cfg.Badger.InMemory)
		return &repositories{
			nodes:  store,
			health: store,
			close:  func() { store.Close() },
		}, nil

	default:
		pool, err := pgxpool.New(ctx, cfg.DB.Source)
		if err != nil {
			return nil, fmt.Errorf("cannot connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("cannot ping database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("cannot migrate database: %w", err)
		}
		logger.Info("connected to database")

		store := database.NewStore(pool)
		return &repositories{
			nodes:    store,
			health:   store,
			accounts: store,
			journal:  store,
			close:    pool.Close,
		}, nil
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	objects, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cannot initialise object storage: %w", err)
	}
	logger.Info("object storage ready", "driver", cfg.Storage.Driver)

	hub := websocket.NewHub(logger, cfg.CORS.AllowedOrigins)
	go hub.Run(ctx)

	publisher := events.NewPublisher(repos.journal, hub, logger)

	svc, err := drive.NewService(repos.nodes, objects, batch.New(cfg.Batch.MaxConcurrency, logger), publisher, logger, drive.Options{
		Namespace:    cfg.Storage.Namespace,
		MaxFileBytes: cfg.Uploads.MaxFileBytes,
	})
	if err != nil {
		return err
	}

	opts := api.Options{
		Accounts: repos.accounts,
		Health:   repos.health,
		Hub:      hub,
	}
	if local, ok := objects.(*storage.LocalStorage); ok {
		opts.Objects = http.FileServer(http.Dir(local.BasePath()))
		logger.Info("serving stored files", "path", local.BasePath())
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(cfg, svc, logger, opts).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.HTTP.Addr, "docs", "/swagger/index.html")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
