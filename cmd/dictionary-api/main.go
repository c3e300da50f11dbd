// Package main provides the dictionary API service entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/api/handlers"
	"github.com/trendingvenues/termdict/internal/api/middleware"
	"github.com/trendingvenues/termdict/internal/auth"
	"github.com/trendingvenues/termdict/internal/config"
	"github.com/trendingvenues/termdict/internal/infrastructure/stream"
	"github.com/trendingvenues/termdict/internal/observability/metrics"
	"github.com/trendingvenues/termdict/internal/observability/tracing"
	"github.com/trendingvenues/termdict/internal/query"
	"github.com/trendingvenues/termdict/internal/store"
	"github.com/trendingvenues/termdict/internal/store/local"
	"github.com/trendingvenues/termdict/internal/store/postgres"
	"github.com/trendingvenues/termdict/pkg/circuitbreaker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg.LogLevel)
	defer logger.Sync()

	m := metrics.New()

	// Tracing is opt-in
	if cfg.TracingEnabled {
		tp, err := tracing.Init(context.Background(), tracing.Config{
			ServiceName:  "dictionary-api",
			OTLPEndpoint: cfg.OTLPEndpoint,
			SampleRate:   cfg.TraceSampleRate,
		})
		if err != nil {
			logger.Fatal("tracing init failed", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tp.Shutdown(ctx)
		}()
	}

	// Select the term store. Without a database the service serves the
	// built-in dictionary read-only.
	var (
		st   store.Store
		pool *pgxpool.Pool
	)
	switch {
	case cfg.StoreDriver == "local":
		ls, err := local.Open(cfg.LocalDataFile, logger)
		if err != nil {
			logger.Fatal("failed to open local store", zap.Error(err))
		}
		st = ls
		logger.Info("using local file store", zap.String("path", cfg.LocalDataFile))
	case cfg.DatabaseURL == "":
		st = store.NewSeedFallback()
		m.FallbackReads.Inc()
		logger.Warn("no DATABASE_URL set, serving built-in dictionary read-only")
	default:
		pool, err = pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			logger.Fatal("database ping failed", zap.Error(err))
		}
		logger.Info("connected to database")

		breakerCfg := circuitbreaker.DefaultConfig("postgres-store")
		breakerCfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		}
		breakerCfg.IsSuccessful = func(err error) bool {
			return err == nil || errors.Is(err, store.ErrNotFound)
		}
		breaker := circuitbreaker.New(breakerCfg, logger)
		st = postgres.New(pool, breaker, logger)
	}
	defer st.Close()

	coord := query.NewCoordinator(st, m, logger)

	// Authentication requires the database for the user tables.
	var authSvc *auth.Service
	if pool != nil && cfg.JWTSecret != "" {
		provider := auth.NewPostgresProvider(pool, cfg.JWTSecret, logger)
		authSvc = auth.NewService(provider, cfg.AllowedEmailDomain, logger)
	} else {
		logger.Warn("authentication disabled, set DATABASE_URL and JWT_SECRET to enable")
	}

	// Cross-instance cache invalidation over the event stream.
	var (
		producer *stream.Producer
		consumer *stream.Consumer
	)
	if len(cfg.Brokers) > 0 {
		instanceID := cfg.InstanceID
		if instanceID == "" {
			instanceID = uuid.New().String()
		}

		admin, err := stream.NewAdmin(cfg.Brokers, logger)
		if err != nil {
			logger.Fatal("failed to connect to brokers", zap.Error(err))
		}
		if err := admin.EnsureTopics(context.Background()); err != nil {
			logger.Fatal("failed to ensure topics", zap.Error(err))
		}
		admin.Close()

		pcfg := stream.DefaultProducerConfig(instanceID)
		pcfg.Brokers = cfg.Brokers
		producer, err = stream.NewProducer(pcfg, logger)
		if err != nil {
			logger.Fatal("failed to create producer", zap.Error(err))
		}
		coord.OnChange(func(ch query.Change) {
			producer.PublishChange(context.Background(), ch)
			m.StreamEventsOut.Inc()
		})

		ccfg := stream.DefaultConsumerConfig(instanceID)
		ccfg.Brokers = cfg.Brokers
		consumer, err = stream.NewConsumer(ccfg, func(ctx context.Context, ev stream.Event) {
			m.StreamEventsIn.Inc()
			coord.InvalidateAll()
		}, logger)
		if err != nil {
			logger.Fatal("failed to create consumer", zap.Error(err))
		}
		consumer.Start()
		logger.Info("invalidation stream connected", zap.Strings("brokers", cfg.Brokers))
	}

	termHandler := handlers.NewTermHandler(coord, st, logger)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Tracing("dictionary-api"))

	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := pool.Ping(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", metrics.Handler())

	if authSvc != nil {
		authHandler := handlers.NewAuthHandler(authSvc, logger)
		r.Mount("/auth", authHandler.Routes())

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.SessionAuth(authSvc))
			r.Mount("/terms", termHandler.Routes())
			r.Post("/password", authHandler.UpdatePassword)
		})
	} else {
		r.Route("/api/v1", func(r chi.Router) {
			r.Mount("/terms", termHandler.Routes())
		})
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		if consumer != nil {
			consumer.Close()
		}
		if producer != nil {
			producer.Close(ctx)
		}
	}()

	logger.Info("starting dictionary API", zap.String("port", cfg.Port))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func breakerStateValue(s circuitbreaker.State) float64 {
	switch s {
	case circuitbreaker.StateOpen:
		return 1
	case circuitbreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","service":"dictionary-api","version":"1.0.0"}`)
}
