package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/config"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/handler"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/cache"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/observability"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/resilience"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/port"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/service"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("data_dir", cfg.DataDir),
		zap.Duration("access_token_ttl", cfg.AccessTokenTTL),
		zap.Duration("refresh_token_ttl", cfg.RefreshTokenTTL),
		zap.Int("store_max_retries", cfg.StoreMaxRetries),
	)

	// --- Tracing ---
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "bankd")
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Stores ---
	var accountStore port.AccountStore
	var employeeStore port.EmployeeStore
	var journal port.TransactionJournal

	switch cfg.StoreBackend {
	case "memory":
		mem := store.NewMemory()
		accountStore = mem
		employeeStore = mem
		journal = mem
		logger.Warn("using in-memory store, data is lost on exit")
	default:
		csv, err := store.NewCSV(cfg.DataDir, logger)
		if err != nil {
			logger.Fatal("failed to open csv store", zap.Error(err))
		}
		accountStore = csv
		employeeStore = csv
		journal = csv
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.StoreMaxRetries,
		InitialBackoff: cfg.StoreInitialBackoff,
		MaxConcurrency: cfg.StoreMaxConcurrency,
	}
	accountStore = store.NewResilient(accountStore, resilience.NewCircuitBreaker("account-store"), resilienceCfg)

	// --- Services ---
	ledger := service.NewLedger(accountStore, journal, metrics, logger)
	directory := service.NewEmployeeDirectory(employeeStore, logger)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelLoad()
	g, gctx := errgroup.WithContext(loadCtx)
	g.Go(func() error { return ledger.Load(gctx) })
	g.Go(func() error { return directory.Load(gctx) })
	if err := g.Wait(); err != nil {
		logger.Fatal("startup load failed", zap.Error(err))
	}

	sessions := cache.New[service.SessionIdentity](cfg.RefreshTokenTTL)
	authSvc := service.NewAuthService(ledger, directory, sessions, []byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, metrics, logger)
	reports := service.NewReportService(ledger, logger)

	// --- Router ---
	router := handler.NewRouter(ledger, authSvc, directory, reports, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
