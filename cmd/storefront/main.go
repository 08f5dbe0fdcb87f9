package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/localstore"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const productCacheTTL = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	domain.UsePlainJSONNumbers()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open local store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()

	client := api.NewClient(api.Config{
		BaseURL:         cfg.APIBaseURL,
		Timeout:         cfg.RequestTimeout,
		RateLimit:       cfg.APIRateLimit,
		RateBurst:       cfg.APIRateBurst,
		BreakerFailures: cfg.BreakerFailures,
	}, logger)
	products := catalog.NewService(client, productCacheTTL, logger)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers...)
		defer kp.Close()
		publisher = kp
	}

	registry := app.NewRegistry(app.Config{
		Store:     store,
		Backend:   client,
		Publisher: publisher,
		Policy: domain.ShippingPolicy{
			FreeThreshold: cfg.FreeShippingThreshold,
			Fee:           cfg.ShippingFee,
		},
		AssetBase:    cfg.AssetBaseURL,
		PollInterval: cfg.PollInterval,
		IdleTTL:      cfg.SessionIdleTTL,
		Logger:       logger,
	})
	defer registry.Close()

	if len(cfg.KafkaBrokers) > 0 {
		clearer := events.NewCartClearer(registry, logger, cfg.KafkaBrokers...)
		defer clearer.Close()
		go clearer.Run(ctx)
		logger.Info("listening for order events", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	deps := h.Deps{
		Sessions:     registry,
		Products:     products,
		Orders:       client,
		Admin:        client,
		Tickets:      client,
		Timeout:      cfg.RequestTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Logger:       logger,
	}
	if cfg.SimulatePayments {
		deps.Gateway = checkout.NewSimulatedGateway(cfg.PaymentSecret, checkout.RandomOutcome{}, time.Second)
		logger.Warn("payments are simulated; do not use in production")
	}
	router := h.NewRouter(deps)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront starting", zap.String("addr", srv.Addr), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// openStore picks the local storage backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (localstore.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		s, err := localstore.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return s, closer(s, logger), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("using redis store", zap.String("addr", cfg.RedisAddr))
		return localstore.NewRedisStore(client, "storefront"), closer(client, logger), nil

	case config.BackendMongo:
		db, err := localstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using mongo store", zap.String("database", cfg.MongoDBName))
		return localstore.NewMongoStore(db), func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				logger.Warn("mongo disconnect failed", zap.Error(err))
			}
		}, nil

	default:
		logger.Info("using in-memory store")
		return localstore.NewMemoryStore(), func() {}, nil
	}
}

func closer(c io.Closer, logger *zap.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}
}
