// Package main is the entry point for the stageside server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/catalog"
	"github.com/arosling/stageside/internal/clock"
	"github.com/arosling/stageside/internal/config"
	"github.com/arosling/stageside/internal/database"
	"github.com/arosling/stageside/internal/dispatcher"
	"github.com/arosling/stageside/internal/domain"
	"github.com/arosling/stageside/internal/handler"
	"github.com/arosling/stageside/internal/inquiry"
	"github.com/arosling/stageside/internal/logging"
	"github.com/arosling/stageside/internal/metrics"
	"github.com/arosling/stageside/internal/middleware"
	"github.com/arosling/stageside/internal/repository"
	"github.com/arosling/stageside/internal/sequencer"
	"github.com/arosling/stageside/internal/shutdown"
	"github.com/arosling/stageside/internal/transport"
)

func main() {
	// Load .env for local development; ignore when absent
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logging.New(&logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := log.Zap()
	defer func() { _ = logger.Sync() }()

	logger.Info("starting stageside server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Environment),
		zap.String("storage", cfg.Automation.Storage),
	)

	ctx := context.Background()
	clk := clock.New()

	// Initialize storage
	var (
		repo domain.SequenceRepository
		db   *database.DB
	)
	if cfg.Automation.Storage == "postgres" {
		db, err = database.New(ctx, &cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		// Note: db.Close() is handled by shutdown coordinator

		migrator := database.NewMigrator(db.Pool, logger)
		if err := migrator.Migrate(ctx); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}

		repo = repository.NewSequenceRepository(db.Pool)
	} else {
		logger.Warn("using in-memory sequence storage, data is not persisted")
		repo = repository.NewMemorySequenceRepository()
	}

	// Initialize metrics
	m := metrics.New()

	// Initialize mail transport
	var (
		mailer   transport.Transport
		recorder *transport.Recorder
	)
	if cfg.Automation.Transport == "recorder" {
		recorder = transport.NewRecorder(0)
		mailer = recorder
	} else {
		mailer = transport.NewLogTransport(logger.Named("mail"))
	}

	// Initialize follow-up catalog; invalid templates are a startup failure
	cat, err := catalog.New()
	if err != nil {
		logger.Fatal("invalid follow-up catalog", zap.Error(err))
	}

	// Initialize sequencer and dispatcher
	seq := sequencer.New(sequencer.Config{Enabled: cfg.Automation.Enabled}, cat, repo, clk, logger.Named("sequencer"))

	disp := dispatcher.New(repo, mailer, clk, logger.Named("dispatcher"), m, &dispatcher.Config{
		PollInterval:    cfg.Automation.PollInterval,
		BatchSize:       cfg.Automation.BatchSize,
		WorkerCount:     cfg.Automation.WorkerCount,
		StuckSendWindow: cfg.Automation.StuckSendWindow,
	})

	// Initialize per-visitor sessions
	engineCfg := inquiry.Config{
		HistoryEnabled:          true,
		ConsultationEnabled:     cfg.Consultation.Enabled,
		ConsultationSettleDelay: cfg.Consultation.SettleDelay,
	}
	sessions := handler.NewSessionRegistry(engineCfg, clk, logger.Named("session"))

	// Initialize shutdown coordinator early so probes track its state
	shutdownCoord := shutdown.NewCoordinator(&shutdown.Config{
		Timeout: 30 * time.Second,
	}, logger)
	readiness := shutdown.NewReadinessProbe(shutdownCoord)

	// Initialize handlers
	journeyHandler := handler.NewJourneyHandler(sessions, logger)
	pricingHandler := handler.NewPricingHandler(sessions, m, logger)
	contactHandler := handler.NewContactHandler(seq, sessions, m, logger)
	sequenceHandler := handler.NewSequenceHandler(seq, m, logger)
	healthHandler := handler.NewHealthHandler(handler.HealthHandlerConfig{
		HealthChecker: healthChecker(db),
		Readiness:     readiness,
		Logger:        logger,
	})

	// Initialize middleware
	correlation := middleware.NewRequestCorrelation(logger)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)

	// Initialize router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(correlation.Middleware) // First: add correlation IDs
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(m.InstrumentHTTP)
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit(rateLimiter))

	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", m.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodySizeLimiterJSON())
		journeyHandler.RegisterRoutes(r)
		pricingHandler.RegisterRoutes(r)
		contactHandler.RegisterRoutes(r)
		sequenceHandler.RegisterRoutes(r)
	})

	if cfg.IsDevelopment() {
		debugHandler := handler.NewDebugHandler(recorder, sessions, logger)
		r.Route("/debug", func(r chi.Router) {
			debugHandler.RegisterRoutes(r)
			r.Handle("/log-level", log)
		})
	}

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start email dispatcher
	if err := disp.Start(ctx); err != nil {
		logger.Fatal("failed to start email dispatcher", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Register teardown in phase order: drain HTTP, stop workers, close storage
	shutdownCoord.RegisterFunc(shutdown.PhaseDrain, "http-server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	shutdownCoord.RegisterFunc(shutdown.PhaseWorkers, "email-dispatcher", func(ctx context.Context) error {
		return disp.Stop(ctx)
	})
	shutdownCoord.RegisterFunc(shutdown.PhaseWorkers, "sessions", func(ctx context.Context) error {
		sessions.Close()
		return nil
	})

	if db != nil {
		shutdownCoord.RegisterFunc(shutdown.PhaseStorage, "database", func(ctx context.Context) error {
			db.Close()
			return nil
		})
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("received shutdown signal")

	// Execute graceful shutdown
	if err := shutdownCoord.Shutdown(ctx); err != nil {
		logger.Error("shutdown completed with errors", zap.Error(err))
	}
}

// healthChecker adapts the optional database into the health interface
// without handing a typed-nil pointer to the handler.
func healthChecker(db *database.DB) handler.HealthChecker {
	if db == nil {
		return nil
	}
	return db
}
