// Command server wires the review engine behind an HTTP API. Stores are
// chosen from configuration: Postgres and Redis when configured, in-memory
// otherwise, so a single binary serves both development and production.
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
	"golang.org/x/sync/errgroup"

	"concord/internal/platform/config"
	"concord/internal/platform/httpserver"
	"concord/internal/platform/logger"
	"concord/internal/platform/postgres"
	platformredis "concord/internal/platform/redis"
	"concord/internal/review/audit"
	"concord/internal/review/handler"
	"concord/internal/review/metrics"
	"concord/internal/review/quorum"
	"concord/internal/review/service"
	"concord/internal/review/store/ledger"
	"concord/internal/review/store/registry"
	"concord/internal/review/store/submission"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres setup failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var subs submission.Store = submission.NewInMemoryStore()
	var votes ledger.Store = ledger.NewInMemoryStore()
	if pool != nil {
		subs = submission.NewPostgres(pool)
		votes = ledger.NewPostgres(pool)
	}
	var reviewers registry.Store = registry.NewInMemoryStore()
	if redisClient != nil {
		reviewers = registry.NewRedis(redisClient.Client)
	}

	auditOpts := []audit.Option{audit.WithAsyncBuffer(1024)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka setup failed", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts, audit.WithSink(sink))
	}
	auditlog := audit.NewPublisher(audit.NewInMemoryStore(), auditOpts...)
	defer auditlog.Close()

	calc := quorum.New()
	if cfg.QuorumRatio > 0 {
		calc.Ratio = cfg.QuorumRatio
	}

	m := metrics.New()
	svc := service.NewService(subs, reviewers, votes, calc, m, auditlog)

	router := chi.NewRouter()
	handler.New(svc, log, m).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting concord", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
