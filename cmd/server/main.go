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

	"go.uber.org/zap"

	"github.com/Simplici0/estimator/internal/auth"
	"github.com/Simplici0/estimator/internal/config"
	"github.com/Simplici0/estimator/internal/db"
	"github.com/Simplici0/estimator/internal/logging"
	"github.com/Simplici0/estimator/internal/migrations"
	"github.com/Simplici0/estimator/internal/seed"
	"github.com/Simplici0/estimator/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, warnings := config.Load()

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	for _, w := range warnings {
		logger.Warn("configuration incomplete", zap.String("detail", w))
	}
	if cfg.SessionSecret == "" {
		if !cfg.IsDev() {
			return errors.New("SESSION_SECRET is required outside development")
		}
		if cfg.SessionSecret, err = auth.RandomSecret(); err != nil {
			return err
		}
		logger.Warn("SESSION_SECRET not set, using a per-process secret; sessions end on restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, logging.NewPrintfAdapter(logger)); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}

	if cfg.SeedOnStart {
		seedCfg := seed.Config{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword}
		if cfg.SeedFile != "" {
			if seedCfg.Model, err = seed.LoadFile(cfg.SeedFile); err != nil {
				return err
			}
		}
		stats, err := seed.Run(ctx, database, seedCfg)
		if err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
		logger.Info("seed completed", zap.Int("inserts", stats.Inserts), zap.String("file", cfg.SeedFile))
	}

	authService := auth.New(database, cfg.SessionSecret)
	created, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	}
	if created {
		logger.Info("admin user created", zap.String("email", cfg.AdminEmail))
	}

	srv := newServer(store.New(database), authService, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
