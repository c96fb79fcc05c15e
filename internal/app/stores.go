// Package app wires configuration into stores, the event bus and the
// application handlers shared by the api and worker binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/config"
	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/studyplan"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/mentoria-hub/pkg/circuitbreaker"
	"github.com/alem-hub/mentoria-hub/pkg/retry"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// Stores holds the repositories and caches the handlers run on. Postgres and
// Redis are optional; missing ones are replaced by in-memory implementations.
type Stores struct {
	Users     user.Repository
	Calendars calendar.Repository
	Sessions  session.Repository
	Plans     studyplan.Repository
	SlotCache calendar.SlotCache
	Penalties session.PenaltyCounter

	// DB and Cache are nil when the service runs without them.
	DB    *postgres.Connection
	Cache *redis.Cache
}

// OpenStores connects to the configured backends. Connection attempts are
// retried with backoff because containers may still be starting.
func OpenStores(ctx context.Context, cfg *config.Config, clock timeutil.Clock, log *zap.Logger) (*Stores, error) {
	s := &Stores{}

	if cfg.UsesPostgres() {
		conn, err := connectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s.DB = conn
		s.Users = postgres.NewUserRepository(conn)
		s.Calendars = postgres.NewCalendarRepository(conn)
		s.Sessions = postgres.NewSessionRepository(conn)
		s.Plans = postgres.NewStudyPlanRepository(conn)
	} else {
		log.Warn("DATABASE_URL is not set, using in-memory stores")
		s.Users = memory.NewUserRepository()
		s.Calendars = memory.NewCalendarRepository()
		s.Sessions = memory.NewSessionRepository()
		s.Plans = memory.NewStudyPlanRepository()
	}

	if cfg.Redis.Enabled {
		cache, err := connectRedis(ctx, cfg, log)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Cache = cache
		s.SlotCache = redis.NewGuardedSlotCache(redis.NewSlotCache(cache),
			circuitbreaker.CacheBreaker("redis-slot-cache", func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			}))
		s.Penalties = redis.NewPenaltyCounter(cache)
	} else {
		s.SlotCache = memory.NewSlotCache(clock.Now)
		s.Penalties = memory.NewPenaltyCounter()
	}

	return s, nil
}

// Close releases the backend connections.
func (s *Stores) Close() {
	if s.Cache != nil {
		_ = s.Cache.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

func startupRetrier(log *zap.Logger, what string, attempts int) *retry.Retrier {
	onRetry := func(attempt int, err error, delay time.Duration) {
		log.Warn("backend not ready, retrying",
			zap.String("backend", what),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
	return retry.StartupRetrier(attempts, onRetry)
}

func connectPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*postgres.Connection, error) {
	poolCfg := postgres.DefaultConfig()
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	var conn *postgres.Connection
	err := startupRetrier(log, "postgres", cfg.Database.ConnectAttempts).Do(ctx, func(ctx context.Context) error {
		c, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, poolCfg)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, conn, log); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

func migrate(ctx context.Context, conn *postgres.Connection, log *zap.Logger) error {
	m, err := postgres.NewMigrator(conn, log)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _ = m.Close() }()

	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if v, err := m.Version(ctx); err == nil {
		log.Info("database schema is up to date", zap.Int64("version", v))
	}
	return nil
}

func connectRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Cache, error) {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout

	var cache *redis.Cache
	err := startupRetrier(log, "redis", 0).Do(ctx, func(context.Context) error {
		c, err := redis.NewCache(rc)
		if err != nil {
			return err
		}
		cache = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info("redis connection established", zap.String("addr", rc.Addr()))
	return cache, nil
}

