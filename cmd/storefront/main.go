package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/session"
	"github.com/joao-fontenele/storefront/internal/storefront"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const (
	serviceName    = "storefront"
	serviceVersion = "0.1.0"

	sweepInterval = time.Minute
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open session store", "error", err, "store", cfg.SessionStore)
		os.Exit(1)
	}
	defer closeStore()
	sessions := session.NewManager(store)

	var placer checkout.Placer = checkout.NewSimulatedPlacer(cfg.CheckoutDelay)
	if cfg.OrdersServiceURL != "" {
		httpClient := &http.Client{
			Timeout:   cfg.UpstreamTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
		placer = checkout.NewBackendPlacer(cfg.OrdersServiceURL, httpClient)
		logger.Info("placing orders through backend", "url", cfg.OrdersServiceURL)
	}

	var (
		opts          []checkout.Option
		newsletterPub messaging.Publisher
	)
	if len(cfg.KafkaBrokers) > 0 {
		orders := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrders)
		defer func() { _ = orders.Close() }()
		newsletter := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicNewsletter)
		defer func() { _ = newsletter.Close() }()

		opts = append(opts, checkout.WithPublisher(orders))
		newsletterPub = newsletter
	}

	processor := checkout.NewProcessor(sessions, placer, logger, opts...)
	go processor.RunJanitor(ctx, sweepInterval)

	handler := storefront.NewHandler(sessions, processor, cfg.Categories, newsletterPub, logger)
	router := storefront.NewRouter(storefront.Deps{
		Logger:           logger,
		Handler:          handler,
		Verifier:         auth.NewVerifier(cfg.JWTSecret),
		SessionTTL:       cfg.SessionTTL,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Metrics:          metricsHandler,
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(router, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port, "session_store", cfg.SessionStore)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if err := processor.Shutdown(shutdownCtx); err != nil {
		logger.Error("checkout shutdown error", "error", err)
	}
}

// openStore builds the configured session store and starts its expiry sweep
// where the backend needs one.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case config.StorePostgres:
		db, err := telemetry.OpenDB(ctx, "postgres", cfg.PostgresURL, telemetry.DefaultPool)
		if err != nil {
			return nil, nil, err
		}
		store := session.NewPostgresStore(db, cfg.SessionTTL)
		go sweep(ctx, logger, func() (int64, error) { return store.Sweep(ctx) })
		return store, func() { _ = db.Close() }, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }, nil

	default:
		store := session.NewMemoryStore(cfg.SessionTTL)
		go sweep(ctx, logger, func() (int64, error) { return int64(store.Sweep()), nil })
		return store, func() {}, nil
	}
}

func sweep(ctx context.Context, logger *slog.Logger, fn func() (int64, error)) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := fn()
			if err != nil {
				logger.Error("failed to sweep expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("swept expired sessions", "count", n)
			}
		}
	}
}
