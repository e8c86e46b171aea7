package e2e

import (
	"io"
	"log/slog"
	"net/http/httptest"

	"github.com/prometheus/client_golang/prometheus"

	credhandler "credverify/internal/credential/handler"
	credmetrics "credverify/internal/credential/metrics"
	credservice "credverify/internal/credential/service"
	"credverify/internal/credential/signature"
	"credverify/internal/ledger"
	"credverify/internal/ledger/memory"
	"credverify/internal/platform/health"
	httptransport "credverify/internal/transport/http"
	auditpublisher "credverify/pkg/platform/audit/publisher"
	memoryaudit "credverify/pkg/platform/audit/store/memory"
)

func newInProcessServer() *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := memory.New()

	svc := credservice.New(
		ledger.New(backend, ledger.WithLogger(logger)),
		signature.NewVerifier(),
		credservice.WithLogger(logger),
		credservice.WithAuditPublisher(auditpublisher.New(memoryaudit.NewInMemoryStore())),
		credservice.WithMetrics(credmetrics.New(prometheus.NewRegistry())),
	)

	healthHandler := health.New("e2e", health.WithBackend("memory"))
	healthHandler.RegisterCheck("ledger", backend.Health)

	return httptest.NewServer(httptransport.NewRouter(httptransport.Config{
		Logger:      logger,
		Credentials: credhandler.New(svc, logger),
		Health:      healthHandler,
	}))
}
