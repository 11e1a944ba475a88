package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"punsj/internal/folder"
	"punsj/internal/handler"
	"punsj/internal/integrations/k9sak"
	"punsj/internal/integrations/pdl"
	"punsj/internal/journalpost"
	"punsj/internal/person"
	"punsj/internal/platform/config"
	"punsj/internal/platform/httpserver"
	"punsj/internal/platform/kafka"
	"punsj/internal/platform/logger"
	"punsj/internal/platform/metrics"
	"punsj/internal/platform/middleware"
	"punsj/internal/platform/postgres"
	platformredis "punsj/internal/platform/redis"
	"punsj/internal/submission"
	"punsj/pkg/platform/httputil"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// main wires infrastructure, services and the HTTP router, and keeps the server
// lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
		}
	} else {
		log.Warn("DATABASE_URL not set, documents are kept in memory")
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer producer.Close()
	if cfg.Kafka.CreateTopics {
		err := producer.EnsureTopics(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor,
			cfg.Kafka.SubmissionTopic, cfg.Kafka.SharedCareTopic)
		if err != nil {
			return err
		}
	}

	st, err := newStores(db, cfg.Database, m)
	if err != nil {
		return err
	}

	var resolver pdl.Resolver = pdl.New(cfg.Identity.BaseURL, cfg.Identity.Timeout,
		pdl.WithLogger(log), pdl.WithRetry(cfg.Identity.RetryCount))
	if redisClient != nil {
		resolver = pdl.NewCachedResolver(resolver, redisClient.Client, cfg.Redis.IdentityTTL,
			pdl.WithCacheLogger(log), pdl.WithCacheMetrics(m))
	}

	persons := person.New(st.persons, resolver, person.WithLogger(log))
	folders := folder.New(st.folders, persons, folder.WithLogger(log), folder.WithMetrics(m))
	journalposts := journalpost.New(st.journalposts, journalpost.WithLogger(log))
	caseSystem := k9sak.New(cfg.CaseSystem.BaseURL, cfg.CaseSystem.Timeout, k9sak.WithLogger(log))
	service := submission.New(folders, persons, journalposts, producer,
		submission.Topics{Submission: cfg.Kafka.SubmissionTopic, SharedCare: cfg.Kafka.SharedCareTopic},
		submission.WithCaseSystem(caseSystem),
		submission.WithLogger(log),
		submission.WithMetrics(m),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(m))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	checks := map[string]func(context.Context) error{"kafka": producer.Health}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}
	r.Get("/ready", ready(checks))
	r.Handle("/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.ContentTypeJSON)
		if cfg.Auth.SigningKey != "" {
			r.Use(middleware.RequireAuth(middleware.NewHMACValidator(cfg.Auth.SigningKey, cfg.Auth.Issuer), log))
		} else {
			log.Warn("JWT_SIGNING_KEY not set, API is unauthenticated")
		}
		handler.New(service, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting k9-punsj", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ready answers 503 when any dependency check fails, listing every check's result.
func ready(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := make(map[string]string, len(checks))
		code := http.StatusOK
		for name, check := range checks {
			status[name] = "ok"
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}
