package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	credhandler "credverify/internal/credential/handler"
	credmetrics "credverify/internal/credential/metrics"
	"credverify/internal/credential/query"
	"credverify/internal/credential/sequence"
	credservice "credverify/internal/credential/service"
	"credverify/internal/credential/signature"
	"credverify/internal/ledger"
	"credverify/internal/platform/config"
	"credverify/internal/platform/health"
	"credverify/internal/platform/logger"
	"credverify/internal/platform/metrics"
	httptransport "credverify/internal/transport/http"
	"credverify/pkg/platform/middleware/request"
	"credverify/pkg/platform/tracer"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing credverify",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"ledger_backend", cfg.LedgerBackend,
	)

	queryMode, err := query.ParseMode(cfg.RequestQueryMode)
	if err != nil {
		return err
	}
	allocator, err := sequence.New(sequence.Kind(cfg.SequenceAllocator))
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry(health.Version, cfg.Environment)
	reg.SetLedgerBackend(cfg.LedgerBackend)
	healthHandler := health.New(cfg.Environment, health.WithBackend(cfg.LedgerBackend))

	infra, err := openInfra(ctx, cfg, reg, healthHandler, log)
	if err != nil {
		return err
	}
	defer infra.Close(log)

	svc := credservice.New(
		ledger.New(infra.backend, ledger.WithLogger(log), ledger.WithTimeout(cfg.InvokeTimeout)),
		signature.NewVerifier(),
		credservice.WithLogger(log),
		credservice.WithAuditPublisher(infra.publisher),
		credservice.WithTracer(tracer.NewOTel()),
		credservice.WithMetrics(credmetrics.New(reg)),
		credservice.WithAllocator(allocator),
		credservice.WithQueryMode(queryMode),
	)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Credentials:    credhandler.New(svc, log),
		Health:         healthHandler,
		Metrics:        reg.Handler(),
		RequestMetrics: request.NewMetrics(reg),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server",
			"addr", cfg.Addr,
			"query_mode", svc.QueryMode(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(poolStatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				infra.RecordPoolStats()
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
