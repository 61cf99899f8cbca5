package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"customerd/internal/authz"
	"customerd/internal/customer/cache"
	"customerd/internal/customer/handler"
	"customerd/internal/customer/metrics"
	"customerd/internal/customer/service"
	custstore "customerd/internal/customer/store"
	"customerd/internal/notifier"
	"customerd/internal/platform/config"
	"customerd/internal/platform/httpserver"
	"customerd/internal/platform/logger"
	"customerd/internal/platform/postgres"
	platformredis "customerd/internal/platform/redis"
	"customerd/internal/token"
)

// directory is what the wiring needs from a store: the service facade plus
// ownership resolution for the access policy.
type directory interface {
	service.Directory
	authz.OwnerResolver
}

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var dir directory
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pg := custstore.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		dir = pg
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		dir = custstore.NewInMemory()
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
	}

	if len(cfg.KafkaBrokers) > 0 {
		events, err := notifier.NewKafka(cfg.KafkaBrokers)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer events.Close()
		opts = append(opts, service.WithNotifier(events))
	} else {
		log.Warn("KAFKA_BROKERS not set, domain events disabled")
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithResolutionCache(cache.NewResolutionCache(redisClient, cfg.ResolutionCacheTTL)))
	}

	policy := authz.New(dir)
	customers := service.New(dir, policy, opts...)
	validator := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.New(customers, validator, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting customerd", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
