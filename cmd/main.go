package main

import (
	"context"
	"errors"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/config"
	h "github.com/fjod/go_storefront/internal/http"
	"github.com/fjod/go_storefront/internal/presenter"
	"github.com/fjod/go_storefront/internal/remote"
	"github.com/fjod/go_storefront/internal/storefront"
	"github.com/fjod/go_storefront/pkg/logger"
)

const hubBuffer = 32

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.RequestTimeout == 0 {
		log.Warn("REQUEST_TIMEOUT not set: a hung remote call keeps the cart busy until it returns")
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	client, err := remote.New(remote.Config{
		BaseURL: cfg.BaseURL,
		APIPath: cfg.APIPath,
		Timeout: cfg.RequestTimeout,
		Breaker: remote.BreakerConfig{
			Enabled:     cfg.BreakerEnabled,
			MaxFailures: cfg.BreakerMaxFailures,
			OpenTimeout: cfg.BreakerOpenTimeout,
		},
		Logger: log,
	})
	if err != nil {
		log.Fatal("failed to create commerce API client", zap.Error(err))
	}

	var store catalog.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable, catalog snapshots will fail until it is back", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		store = catalog.NewRedisStore(rdb, cfg.APIPath, cfg.CatalogTTL)
	}

	hub := presenter.NewHub(hubBuffer)
	sf := storefront.New(client, storefront.Config{
		Presenter:    presenter.Multi(hub, presenter.Logging{Logger: log.Named("presenter")}),
		CatalogStore: store,
		Logger:       log,
	})

	sf.Catalog().Restore(context.Background())
	go func() {
		if err := sf.Load(context.Background()); err != nil {
			log.Warn("initial load failed", zap.Error(err))
			return
		}
		log.Info("storefront loaded",
			zap.Int("products", len(sf.Catalog().Products())),
			zap.Int("cart_items", sf.Cart().Snapshot().Len()))
	}()

	// cancelled before Shutdown so open event streams end
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h.NewRouter(sf, hub, log),
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort), zap.String("api_path", cfg.APIPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("tracer provider shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
