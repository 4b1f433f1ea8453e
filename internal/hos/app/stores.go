// Package app assembles the storage backends shared by the server and the operator CLI.
// Empty connection settings select the in-memory implementations.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eldcore/internal/hos/coordinator"
	"eldcore/internal/hos/export"
	"eldcore/internal/hos/store/events"
	"eldcore/internal/hos/store/statuscache"
	"eldcore/internal/hos/store/violations"
	"eldcore/internal/platform/config"
	"eldcore/internal/platform/postgres"
	"eldcore/internal/platform/redis"
)

// EventLog is the event store as seen by both the coordinator and the exporter.
type EventLog interface {
	coordinator.EventStore
	export.EventSource
}

// ViolationLog is the violation log as seen by both the coordinator and the exporter.
type ViolationLog interface {
	coordinator.ViolationLog
	export.ViolationSource
}

// Stores holds the opened backends. Close releases every connection it opened.
type Stores struct {
	Events     EventLog
	Violations ViolationLog
	Cache      coordinator.StatusCache

	// Durable reports whether the logs are backed by Postgres.
	Durable bool
	// Shared reports whether the cache is backed by Redis.
	Shared bool

	checks  []func(context.Context) error
	closers []func() error
}

// OpenStores connects to the configured backends, running migrations when enabled.
func OpenStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stores, error) {
	s := &Stores{}

	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		s.checks = append(s.checks, db.PingContext)
		if cfg.Postgres.MigrateOnStart {
			if err := postgres.Migrate(db); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		s.Events = events.NewPostgres(db)
		s.Violations = violations.NewPostgres(db)
		s.Durable = true
	} else {
		logger.WarnContext(ctx, "no postgres dsn configured, event and violation logs are in memory")
		s.Events = events.NewInMemoryStore()
		s.Violations = violations.NewInMemoryStore()
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if rc != nil {
		s.closers = append(s.closers, rc.Close)
		s.checks = append(s.checks, rc.Health)
		s.Cache = statuscache.NewRedis(rc.Client, statuscache.WithTTL(cfg.Redis.StatusTTL))
		s.Shared = true
	} else {
		s.Cache = statuscache.NewInMemoryCache()
	}

	logger.InfoContext(ctx, "stores opened", "durable", s.Durable, "shared_cache", s.Shared)
	return s, nil
}

// Health pings every networked backend.
func (s *Stores) Health(ctx context.Context) error {
	for _, check := range s.checks {
		if err := check(ctx); err != nil {
			return fmt.Errorf("backend unhealthy: %w", err)
		}
	}
	return nil
}

func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
