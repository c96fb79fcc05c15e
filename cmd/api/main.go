// Package main - точка входа REST API Mentoria Hub.
//
// API обслуживает менторов и менти: слоты календаря, заявки на сессии,
// одобрение, смену статусов, отзывы и учебные планы.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/config"
	"github.com/alem-hub/mentoria-hub/internal/app"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/scheduler"
	httpapi "github.com/alem-hub/mentoria-hub/internal/interface/http"
	"github.com/alem-hub/mentoria-hub/pkg/logger"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Options{
		Environment: string(cfg.App.Environment),
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting Mentoria Hub API",
		zap.String("env", string(cfg.App.Environment)),
		zap.String("version", cfg.App.Version),
	)

	clock := timeutil.System()

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩА И ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	stores, err := app.OpenStores(ctx, cfg, clock, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	bus, err := app.NewEventBus(cfg, stores, log)
	if err != nil {
		return err
	}
	// Шина закрывается раньше хранилищ: Redis-шина использует их клиента.
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ФОНОВЫЕ ЗАДАЧИ (только для in-memory хранилищ)
	// ─────────────────────────────────────────────────────────────────────────
	// С общей БД задачи выполняет worker; in-memory хранилища видны только
	// этому процессу.
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && !cfg.UsesPostgres() {
		sched, err = app.NewScheduler(cfg, stores, bus, clock, log)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	deps, err := app.HTTPDependencies(cfg, stores, bus, clock, log)
	if err != nil {
		return err
	}
	server := httpapi.NewServer(app.HTTPConfig(cfg), deps)
	errCh := server.StartAsync()

	log.Info("Mentoria Hub API is running", zap.String("address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
		return errors.New("http server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	log.Info("starting graceful shutdown...", zap.Duration("timeout", cfg.App.ShutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}
