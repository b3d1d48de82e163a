package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/results/internal/auth"
	"github.com/JonMunkholm/results/internal/blob"
	"github.com/JonMunkholm/results/internal/config"
	"github.com/JonMunkholm/results/internal/core"
	"github.com/JonMunkholm/results/internal/database"
	"github.com/JonMunkholm/results/internal/logging"
	"github.com/JonMunkholm/results/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}
	store := database.New(pool)

	blobs, err := blob.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer blobs.Close()

	pipeline := core.NewPipeline(blobs, store,
		core.WithRunRecorder(store),
		core.WithMaxFileSize(cfg.Import.MaxFileSize),
	)
	limiter := core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)

	server := web.NewServer(cfg, web.Deps{
		Importer: pipeline,
		Limiter:  limiter,
		Blobs:    blobs,
		Results:  store,
		Profiles: store,
		Runs:     store,
		Tokens: auth.NewTokenService(auth.TokenConfig{
			Secret: cfg.Auth.JWTSecret,
			TTL:    cfg.Auth.TokenTTL,
			Issuer: cfg.Auth.Issuer,
		}),
		DB: pool,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		core.StartHistoryPruner(gctx, store, core.HistoryConfig{
			RetentionDays: cfg.History.RetentionDays,
			Interval:      cfg.History.PruneInterval,
		})
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Imports detach from their requests, so wait for them separately.
		if active := limiter.ActiveCount(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}
		return nil
	})

	return g.Wait()
}
