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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/rajasatyajit/lifesaver/config"
	"github.com/rajasatyajit/lifesaver/internal/api"
	"github.com/rajasatyajit/lifesaver/internal/database"
	"github.com/rajasatyajit/lifesaver/internal/events"
	"github.com/rajasatyajit/lifesaver/internal/intake"
	"github.com/rajasatyajit/lifesaver/internal/logger"
	"github.com/rajasatyajit/lifesaver/internal/metrics"
	middlewares "github.com/rajasatyajit/lifesaver/internal/middleware"
	"github.com/rajasatyajit/lifesaver/internal/ratelimit"
	"github.com/rajasatyajit/lifesaver/internal/store"
	"github.com/rajasatyajit/lifesaver/internal/uploads"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting LifeSaver server",
		"version", Version,
		"build_time", BuildTime,
		"git_commit", GitCommit,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("Server failed", "error", err)
	}
	logger.Info("Server exited")
}

func run(ctx context.Context, cfg *config.Config) error {
	// Initialize metrics
	if cfg.Metrics.Enabled {
		metrics.Init()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	}

	// Initialize database
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close(context.Background())

	if db.IsConfigured() {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	reportStore := store.New(db)

	publisher := newPublisher(cfg.Events)
	defer publisher.Close()

	photos, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	limiter, closeLimiter, err := newLimiter(ctx, g, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	svc := intake.NewService(reportStore, intake.WithPublisher(publisher))
	apiHandler := api.NewHandler(svc, api.Options{
		Uploads:       photos,
		Limiter:       limiter,
		PublicBaseURL: cfg.Uploads.PublicBaseURL,
		BodyLimit:     cfg.Server.BodyLimitBytes,
		Version:       Version,
		BuildTime:     BuildTime,
		GitCommit:     GitCommit,
	})

	// HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(cfg.Server, apiHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", addr)
		return serve(ctx, srv, cfg.Server.GracefulShutdownTimeout)
	})

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		metricsSrv := newMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path)
		g.Go(func() error {
			logger.Info("Starting metrics server", "address", metricsSrv.Addr, "path", cfg.Metrics.Path)
			return serve(ctx, metricsSrv, cfg.Server.GracefulShutdownTimeout)
		})
	}

	return g.Wait()
}

func newRouter(cfg config.ServerConfig, h *api.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Metrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.ReadTimeout))
	r.Use(middlewares.Security)
	r.Use(middlewares.CORS(cfg.CORSAllowedOrigins))

	h.RegisterRoutes(r)
	return r
}

// newLimiter picks the cooldown backend. The in-memory limiter's sweeper
// runs in g until ctx ends.
func newLimiter(ctx context.Context, g *errgroup.Group, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	noop := func() {}
	if !cfg.Intake.CooldownEnabled {
		logger.Info("Submission cooldown disabled")
		return ratelimit.Unlimited{}, noop, nil
	}

	if cfg.Redis.URL != "" {
		l, err := ratelimit.NewRedisLimiter(ctx, cfg.Redis.URL, cfg.Intake.Cooldown)
		if err != nil {
			return nil, noop, fmt.Errorf("initialize redis limiter: %w", err)
		}
		logger.Info("Submission cooldown backed by Redis", "cooldown", cfg.Intake.Cooldown)
		return l, func() { _ = l.Close() }, nil
	}

	l := ratelimit.NewMemoryLimiter(cfg.Intake.Cooldown, clockwork.NewRealClock())
	g.Go(func() error { return l.Run(ctx) })
	logger.Info("Submission cooldown in memory", "cooldown", cfg.Intake.Cooldown)
	return l, noop, nil
}

func newPublisher(cfg config.EventsConfig) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NoOpPublisher{}
	}
	logger.Info("Publishing report events to Kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.ReportsTopic)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ReportsTopic)
}

func newMetricsServer(port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server %s: %w", srv.Addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...", "address", srv.Addr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "address", srv.Addr, "error", err)
		return err
	}
	return nil
}
