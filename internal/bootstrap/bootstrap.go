// Package bootstrap turns configuration into the running backend: the
// repository store, the session store and, when asked, demo data.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"tourismcam/internal/auth"
	"tourismcam/internal/cache"
	"tourismcam/internal/config"
	"tourismcam/internal/database"
	"tourismcam/internal/middleware"
	"tourismcam/internal/repository"
	"tourismcam/internal/seed"
	"tourismcam/internal/server"
)

// Backend is everything the server needs. DB and Redis are nil when the
// configuration does not use them.
type Backend struct {
	Store    repository.Store
	Sessions auth.SessionStore
	DB       *gorm.DB
	Redis    *redis.Client
}

// Deps converts the backend into server dependencies.
func (b *Backend) Deps(cfg *config.Config) server.Deps {
	return server.Deps{
		Config:   cfg,
		Store:    b.Store,
		Sessions: b.Sessions,
		DB:       b.DB,
		Redis:    b.Redis,
	}
}

// Close releases connections opened by Build.
func (b *Backend) Close() error {
	var errs []error
	if b.DB != nil {
		if sqlDB, err := b.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if b.Redis != nil {
		errs = append(errs, b.Redis.Close())
	}
	return errors.Join(errs...)
}

// Build opens the configured store. Redis is optional for every driver:
// without it sessions live in process memory and SQL reads are not cached.
func Build(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{Redis: cache.Connect(cfg.RedisURL)}

	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		b.Store = repository.NewMemoryStore().Store()
	case config.StoreSQLite, config.StorePostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.DB = db
		b.Store = repository.NewGormStore(db, cache.New(b.Redis))
	default:
		_ = b.Close()
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	if b.Redis != nil {
		b.Sessions = auth.NewRedisSessionStore(b.Redis)
	} else {
		b.Sessions = auth.NewMemorySessionStore()
	}

	if err := SeedIfConfigured(ctx, cfg, b.Store); err != nil {
		_ = b.Close()
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "backend ready",
		slog.String("store", storeName(cfg)),
		slog.Bool("redis", b.Redis != nil),
	)
	return b, nil
}

// SeedIfConfigured applies demo fixtures to an empty store, then the
// configured number of random posts.
func SeedIfConfigured(ctx context.Context, cfg *config.Config, store repository.Store) error {
	if !cfg.SeedDemoData {
		return nil
	}
	created, err := seed.Demo(ctx, store)
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	if created && cfg.SeedFakePosts > 0 {
		if _, err := seed.FakePosts(ctx, store, cfg.SeedFakePosts, time.Now().UnixNano()); err != nil {
			return fmt.Errorf("seed fake posts: %w", err)
		}
	}
	return nil
}

func storeName(cfg *config.Config) string {
	if cfg.StoreDriver == "" {
		return config.StoreMemory
	}
	return cfg.StoreDriver
}
