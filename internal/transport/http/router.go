// Package httptransport assembles the HTTP router: middleware stack, probes,
// metrics and the credential routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	credhandler "credverify/internal/credential/handler"
	"credverify/internal/platform/health"
	"credverify/pkg/platform/middleware/request"
	"credverify/pkg/platform/middleware/requesttime"
	"credverify/pkg/validation"
)

// DefaultRequestTimeout applies when Config.RequestTimeout is zero.
const DefaultRequestTimeout = 30 * time.Second

type Config struct {
	Logger         *slog.Logger
	Credentials    *credhandler.Handler
	Health         *health.Handler
	Metrics        http.Handler
	RequestMetrics *request.Metrics
	RequestTimeout time.Duration
	Clock          func() time.Time
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg Config) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.ClientIP)
	r.Use(requesttime.MiddlewareWithClock(clock))
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.LatencyMiddleware(cfg.RequestMetrics))
	r.Use(request.Timeout(timeout))
	r.Use(request.BodyLimit(validation.MaxBodySize))
	r.Use(request.ContentTypeJSON)

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	cfg.Credentials.Register(r)

	return r
}
