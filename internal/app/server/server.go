package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"staffperf/internal/domain/audit"
	"staffperf/internal/domain/auth"
	"staffperf/internal/domain/core"
	"staffperf/internal/domain/leave"
	"staffperf/internal/domain/notifications"
	"staffperf/internal/domain/reports"
	"staffperf/internal/platform/config"
	"staffperf/internal/platform/db"
	"staffperf/internal/platform/events"
	"staffperf/internal/platform/jobs"
	"staffperf/internal/platform/metrics"
	"staffperf/internal/platform/rbac"
	"staffperf/internal/transport/http/api"
	adminhandler "staffperf/internal/transport/http/handlers/admin"
	audithandler "staffperf/internal/transport/http/handlers/audit"
	authhandler "staffperf/internal/transport/http/handlers/auth"
	leavehandler "staffperf/internal/transport/http/handlers/leave"
	notificationshandler "staffperf/internal/transport/http/handlers/notifications"
	reportshandler "staffperf/internal/transport/http/handlers/reports"
	reviewershandler "staffperf/internal/transport/http/handlers/reviewers"
	"staffperf/internal/transport/http/middleware"
	"staffperf/migrations"
)

type App struct {
	Config    config.Config
	DB        *pgxpool.Pool
	Router    http.Handler
	Jobs      *jobs.Service
	Metrics   *metrics.Collector
	Outbox    *events.OutboxStore
	publisher events.Publisher
}

// New connects to the database, applies migrations and seed data as
// configured, and assembles the HTTP router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	perms, err := rbac.NewEnforcer(auth.RolePermissions, auth.RoleParents)
	if err != nil {
		pool.Close()
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      pool,
		Metrics: metrics.New(),
		Outbox:  events.NewOutboxStore(pool),
	}

	var relay *events.Relay
	if cfg.KafkaEnabled() {
		app.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		relay = events.NewRelay(app.Outbox, app.publisher, cfg.OutboxBatchSize)
	} else {
		slog.Info("kafka brokers not configured; outbox events stay pending")
	}
	app.Jobs = jobs.New(pool, relay, app.Metrics, cfg.OutboxPollInterval)

	leaveStore := leave.NewStore(pool)
	if cfg.KafkaTopic != "" {
		leaveStore.Topic = cfg.KafkaTopic
	}
	directory := core.NewDirectory(core.NewStore(pool))
	leaveService := leave.NewService(leaveStore, directory)
	auditService := audit.New(pool)
	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret)
	notifyService := notifications.New(notifications.NewStore(pool))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Logger(app.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", app.handleReady)
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, app.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authHandler := authhandler.NewHandler(authService)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			leaveHandler := leavehandler.NewHandler(leaveService, perms, auditService, notifyService, middleware.NewIdempotencyStore(pool), app.Metrics)
			leaveHandler.RegisterRoutes(r)

			reviewersHandler := reviewershandler.NewHandler(directory, perms)
			reviewersHandler.RegisterRoutes(r)

			notificationsHandler := notificationshandler.NewHandler(notifyService)
			notificationsHandler.RegisterRoutes(r)

			auditHandler := audithandler.NewHandler(auditService, perms)
			auditHandler.RegisterRoutes(r)

			reportsHandler := reportshandler.NewHandler(reports.NewService(reports.NewStore(pool)), perms)
			reportsHandler.RegisterRoutes(r)

			adminHandler := adminhandler.NewHandler(app.Jobs, perms)
			adminHandler.RegisterRoutes(r)
		})
	})

	app.Router = router
	return app, nil
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.DB.Ping(ctx); err != nil {
		api.Fail(w, http.StatusServiceUnavailable, "db_not_ready", "database not ready", middleware.GetRequestID(r.Context()))
		return
	}
	pending, err := a.Outbox.PendingCount(ctx)
	if err != nil {
		slog.Warn("outbox pending count failed", "err", err)
	}
	api.Success(w, map[string]any{
		"status":        "ready",
		"outboxPending": pending,
		"relayEnabled":  a.Config.KafkaEnabled(),
		"jobs":          a.Jobs.LastRuns(),
	}, middleware.GetRequestID(r.Context()))
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Warn("publisher close failed", "err", err)
		}
	}
	a.DB.Close()
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func Run() error {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("leave workflow server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
