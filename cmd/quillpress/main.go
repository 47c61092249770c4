// Package main is the entry point for the Quillpress blog API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"quillpress/internal/blog"
	"quillpress/internal/cache"
	"quillpress/internal/config"
	"quillpress/internal/database"
	"quillpress/internal/events"
	"quillpress/internal/handlers"
	"quillpress/internal/logging"
	"quillpress/internal/middleware"
	"quillpress/internal/router"
	"quillpress/internal/settings"
	"quillpress/internal/store"
	"quillpress/internal/telemetry"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		logging.Init(os.Stdout, false)
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	logging.Init(os.Stdout, cfg.IsDev())
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"cache", cfg.CacheDriver,
	)

	if err := run(cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}

// run wires every dependency, serves until SIGINT or SIGTERM, then drains.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// Connect to PostgreSQL, migrate and verify the schema.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	// Seed the admin author, default category and settings (no-op if users exist).
	if err := database.Seed(db, cfg.SeedAdminPassword); err != nil {
		return err
	}

	blogCache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	// Drop listings cached before this start; migrations or seeding may
	// have changed what they aggregate.
	blogCache.Clear(ctx)

	health := []router.Check{{Name: "database", Probe: db.PingContext}}

	// Domain events: logged in-process, forwarded to NATS when configured.
	bus := events.NewBus()
	bus.Subscribe(func(ctx context.Context, e events.Event) error {
		logging.From(ctx).Debug("post event", "type", e.Type, "post_id", e.PostID, "slug", e.Slug)
		return nil
	})
	if cfg.NATSURL != "" {
		fwd, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer fwd.Close()
		bus.Subscribe(fwd.Handle)
		health = append(health, router.Check{Name: "nats", Probe: fwd.Check})
	} else {
		slog.Warn("nats not configured; events stay in-process")
	}

	// Services over the Postgres repositories.
	repos := store.Repositories(db)
	uow := store.NewUnitOfWork(db)
	blogSettings := settings.NewService(store.NewMetaStore(db))
	invalidations := store.NewCacheLogStore(db)
	if n, err := invalidations.PruneBefore(ctx, time.Now().Add(-store.InvalidationRetention)); err != nil {
		slog.Warn("invalidation log not pruned", "error", err)
	} else if n > 0 {
		slog.Info("invalidation log pruned", "rows", n)
	}

	posts := blog.NewPostService(blog.PostServiceConfig{
		Repos:      repos,
		UnitOfWork: uow,
		Authors:    store.NewUserStore(db),
		Cache:      blogCache,
		Settings:   blogSettings,
		Events:     bus,
		Log:        invalidations,
	})
	taxonomy := blog.NewTaxonomyService(repos, uow, blogCache, blogSettings)
	stats := blog.NewStatsService(repos, blogCache)
	api := handlers.NewAPI(posts, taxonomy, stats, store.NewMediaStore(db))

	writeLimiter := middleware.NewRateLimiter(cfg.WriteRateLimit, cfg.WriteRateBurst)
	defer writeLimiter.Stop()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      otelhttp.NewHandler(router.New(api, writeLimiter, health...), "quillpress"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can wait for shutdown signals.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(drainCtx)
}

// listingCache is a blog.Cache that can also be flushed wholesale.
type listingCache interface {
	blog.Cache
	Clear(ctx context.Context)
}

// openCache returns the configured listing cache and a function releasing
// its connection.
func openCache(ctx context.Context, cfg *config.Config) (listingCache, func(), error) {
	if cfg.CacheDriver == config.CacheMemory {
		slog.Info("using in-memory cache")
		return cache.NewMemory(), func() {}, nil
	}

	client, err := cache.ConnectValkey(ctx, cache.ValkeyOptions{
		Addr:     cfg.ValkeyAddr(),
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
		Attempts: 5,
	})
	if err != nil {
		return nil, nil, err
	}
	return cache.NewStore(client, cfg.CacheTTL), func() { client.Close() }, nil
}
