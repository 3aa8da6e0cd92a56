package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrperf/internal/domain/audit"
	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/evaluation"
	"hrperf/internal/domain/notifications"
	"hrperf/internal/domain/overrides"
	"hrperf/internal/domain/reports"
	"hrperf/internal/domain/schedule"
	"hrperf/internal/domain/scoring"
	"hrperf/internal/domain/templates"
	"hrperf/internal/platform/config"
	"hrperf/internal/platform/db"
	"hrperf/internal/platform/email"
	"hrperf/internal/platform/jobs"
	"hrperf/internal/platform/metrics"
	audithandler "hrperf/internal/transport/http/handlers/audit"
	evaluationshandler "hrperf/internal/transport/http/handlers/evaluations"
	notificationshandler "hrperf/internal/transport/http/handlers/notifications"
	overrideshandler "hrperf/internal/transport/http/handlers/overrides"
	reportshandler "hrperf/internal/transport/http/handlers/reports"
	schedulehandler "hrperf/internal/transport/http/handlers/schedule"
	scoringhandler "hrperf/internal/transport/http/handlers/scoring"
	templateshandler "hrperf/internal/transport/http/handlers/templates"
	"hrperf/internal/transport/http/middleware"
	"hrperf/migrations"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

// Run is the process entry point: it builds the app, serves until SIGINT or
// SIGTERM and exits non-zero on start-up failure.
func Run() {
	cfg := config.Load()
	slog.SetDefault(NewLogger(cfg))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("start-up failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Serve(ctx); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// NewLogger picks a text handler for local development and JSON elsewhere.
func NewLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Environment == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	slog.Info("database connected", "dsn", redactDSN(cfg.DatabaseURL))

	if cfg.RunMigrations {
		if err := db.Migrate(migrations.FS, cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	collector := metrics.New()
	perms := auth.NewStaticPermissions(auth.RolePermissions)
	shares := scoring.Shares{Objective: cfg.ObjectiveShare, Competency: cfg.CompetencyShare}

	directoryStore := directory.NewStore(pool)
	templateStore := templates.NewStore(pool)
	auditService := audit.New(pool)
	notificationService := notifications.New(notifications.NewStore(pool))
	if cfg.EmailEnabled {
		notificationService.WithMailer(email.New(cfg), cfg.EmailFrom)
	}

	templateService := templates.NewService(templateStore, templates.NewCachedLister(templateStore, cfg.TemplateCacheTTL))
	overrideService := overrides.NewService(overrides.NewStore(pool), templateService, directoryStore, auditService)
	evaluationService := evaluation.NewService(evaluation.NewStore(pool), evaluation.Deps{
		Templates:   templateService,
		Directory:   directoryStore,
		Audit:       auditService,
		Notify:      notificationService,
		Metrics:     collector,
		Concurrency: cfg.BatchConcurrency,
	})
	scheduleService := schedule.NewService(directoryStore, overrideService, evaluationService, cfg.DueSoonDays)
	reportService := reports.NewService(overrideService, evaluationService, directoryStore, reports.NewStore(pool), shares, cfg.ReportsDir)

	jobService := jobs.New(jobs.NewStore(pool), jobs.NewReminders(scheduleService, notificationService), collector, cfg.ReminderInterval)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		promHandler := collector.Handler()
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			collector.ObservePool(pool.Stat())
			promHandler.ServeHTTP(w, r)
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, directoryStore))

		templateshandler.NewHandler(templateService, perms).RegisterRoutes(r)
		overrideshandler.NewHandler(overrideService, perms).RegisterRoutes(r)
		evaluationshandler.NewHandler(evaluationService, perms).RegisterRoutes(r)
		schedulehandler.NewHandler(scheduleService, perms).RegisterRoutes(r)
		scoringhandler.NewHandler(shares, perms).RegisterRoutes(r)
		reportshandler.NewHandler(reportService, jobService, perms).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationService).RegisterRoutes(r)
		audithandler.NewHandler(auditService, perms).RegisterRoutes(r)
	})

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobService, Metrics: collector}, nil
}

// Serve starts the background jobs and the HTTP listener, and shuts both down
// when ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	a.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
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

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// redactDSN hides the password of a postgres URL for logging.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		creds = creds[:colon] + ":***"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}
