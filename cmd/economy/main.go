// Package main runs the GaiaQuest economy server: leaderboard, shop catalog
// and XP purchase API backed by a pluggable document store.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/gaiaquest/economy/internal/app"
	"github.com/gaiaquest/economy/internal/app/config"
	"github.com/gaiaquest/economy/internal/app/httpapi"
	"github.com/gaiaquest/economy/internal/app/services/purchase"
	"github.com/gaiaquest/economy/internal/app/storage/file"
	"github.com/gaiaquest/economy/internal/app/storage/postgres"
	"github.com/gaiaquest/economy/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()
	if *configPath != "" {
		os.Setenv("ECONOMY_CONFIG", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("economy").WithError(err).Error("load configuration")
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	stores, cleanup, err := buildStores(cfg, log)
	if err != nil {
		log.WithError(err).Error("initialise store")
		os.Exit(1)
	}
	defer cleanup()

	application, err := app.New(stores, app.Options{
		Repurchase:          purchase.RepurchasePolicy(cfg.Economy.RepurchasePolicy),
		Locking:             purchase.LockPolicy(cfg.Economy.LockPolicy),
		WeeklyResetSchedule: cfg.Jobs.WeeklyResetSchedule,
	}, log)
	if err != nil {
		log.WithError(err).Error("initialise application")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start services")
		os.Exit(1)
	}

	handler := httpapi.NewHandler(application)
	handler = httpapi.WrapWithRateLimit(handler, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	handler = httpapi.WrapWithRequestID(handler, log)
	handler = httpapi.WrapWithCORS(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("economy API listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("stop services")
	}
	log.Info("economy stopped")
}

func buildStores(cfg config.Config, log *logger.Logger) (app.Stores, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case "memory":
		// app.New fills in the in-memory store.
		return app.Stores{}, noop, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := postgres.Open(ctx, cfg.Store.DSN, log)
		if err != nil {
			return app.Stores{}, noop, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return app.Stores{}, noop, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("close postgres store")
			}
		}
		return app.Stores{Users: store, Catalog: store}, cleanup, nil
	default:
		store := file.New(cfg.Store.DataDir, log)
		return app.Stores{Users: store, Catalog: store}, noop, nil
	}
}
