// Package app wires configuration, storage, domain services, and the HTTP
// server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/stats"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/repository"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// backend bundles the storage implementations for one configured backend.
type backend struct {
	catalog catalog.Repository
	carts   cart.Repository
	codes   discount.Repository
	orders  order.Repository

	// recorder implements both stats recorder interfaces and stats.Source.
	recorder interface {
		order.StatsRecorder
		discount.StatsRecorder
		stats.Source
	}

	close func()
	ready health.CheckFunc
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	be, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}
	if be.close != nil {
		defer be.close()
	}

	rate, err := cfg.Discount.ParsedRate()
	if err != nil {
		return err
	}

	// Domain services.
	registry := discount.NewRegistry(be.codes, be.recorder, discount.Config{
		Rate:       rate,
		CodeLength: cfg.Discount.CodeLength,
	})
	ledger := cart.NewLedger(be.carts, be.catalog)
	finalizer := order.NewFinalizer(be.carts, be.catalog, registry, be.orders, be.recorder)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	if be.ready != nil {
		healthSvc.AddReadinessCheck("storage", 5*time.Second, be.ready)
	}
	healthSvc.SetReady(true)

	// HTTP routes: health endpoints plus the API.
	api := http.NewServeMux()
	handler.New(be.catalog, ledger, finalizer, registry, be.recorder).Routes(api)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", otelhttp.NewHandler(api, "storefront",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildBackend constructs the storage layer for the configured backend.
func buildBackend(ctx context.Context, cfg *Config) (*backend, error) {
	switch cfg.Storage {
	case StoragePostgres:
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := repository.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return &backend{
			catalog:  repository.NewCatalogRepository(pool),
			carts:    repository.NewCartRepository(pool),
			codes:    repository.NewDiscountRepository(pool),
			orders:   repository.NewOrderRepository(pool),
			recorder: repository.NewStatsRepository(pool),
			close:    pool.Close,
			ready:    pool.Ping,
		}, nil

	case StorageMemory:
		items, err := loadSeedCatalog()
		if err != nil {
			return nil, err
		}
		return &backend{
			catalog:  memory.NewCatalog(items...),
			carts:    memory.NewCarts(),
			codes:    memory.NewCodes(),
			orders:   memory.NewOrders(),
			recorder: stats.NewAggregator(),
		}, nil

	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
