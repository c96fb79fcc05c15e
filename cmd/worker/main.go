// Package main - точка входа для фоновых процессов (Worker) Mentoria Hub.
//
// Worker отвечает за периодические задачи:
// отмену заявок на сессии, время которых уже прошло.
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
	"github.com/alem-hub/mentoria-hub/pkg/logger"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Worker без общей БД бесполезен: in-memory сессии ему не видны.
	if !cfg.UsesPostgres() {
		return errors.New("DATABASE_URL is required")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log, err := logger.New(logger.Options{
		Environment: string(cfg.App.Environment),
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting Mentoria Hub Worker", zap.String("env", string(cfg.App.Environment)))

	clock := timeutil.System()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩА И ШИНА СОБЫТИЙ
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
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled, worker has nothing to do")
		<-ctx.Done()
		return nil
	}

	sched, err := app.NewScheduler(cfg, stores, bus, clock, log)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	// Заявки, просроченные пока worker был остановлен, отменяются сразу.
	for _, job := range sched.Jobs() {
		if _, err := sched.RunNow(ctx, job.Name); err != nil {
			log.Warn("catch-up run failed", zap.String("job", job.Name), zap.Error(err))
		}
	}

	log.Info("Mentoria Hub Worker is running",
		zap.Duration("expire_interval", cfg.Scheduler.ExpirePendingInterval),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info("received shutdown signal, stopping scheduler...")

	if err := sched.Stop(); err != nil {
		log.Error("scheduler stop failed", zap.Error(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}
