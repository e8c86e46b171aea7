// Package service runs the credential workflows: university key registration,
// degree and verification requests, degree issuance and signature verification.
//
// Every operation is a single ledger invocation. Store and allocator failures are
// infrastructure sentinels and are translated into domain errors here, once.
// Audit events are emitted only after the invocation has committed.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	credmetrics "credverify/internal/credential/metrics"
	"credverify/internal/credential/query"
	"credverify/internal/credential/sequence"
	"credverify/internal/credential/store"
	"credverify/internal/ledger"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/audit"
	"credverify/pkg/platform/sentinel"
	"credverify/pkg/platform/tracer"
)

// Ledger runs fn as one atomic invocation.
type Ledger interface {
	Invoke(ctx context.Context, fn func(ctx context.Context, stub ledger.Stub) error) error
}

// Verifier checks a signature over message against a registered public key.
type Verifier interface {
	Verify(signature, message, publicKey string) bool
}

// AuditPublisher receives lifecycle events after their invocation committed.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates credential operations over the ledger.
type Service struct {
	ledger    Ledger
	verifier  Verifier
	allocator sequence.Allocator
	query     *query.Query

	logger         *slog.Logger
	auditPublisher AuditPublisher
	auditor        *audit.Logger
	tracer         tracer.Tracer
	metrics        *credmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithMetrics(m *credmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAllocator replaces the default counter-based sequence allocator.
func WithAllocator(a sequence.Allocator) Option {
	return func(s *Service) {
		s.allocator = a
	}
}

// WithQueryMode selects how request listings are served.
func WithQueryMode(mode query.Mode) Option {
	return func(s *Service) {
		s.query = query.New(mode)
	}
}

func New(l Ledger, verifier Verifier, opts ...Option) *Service {
	s := &Service{
		ledger:    l,
		verifier:  verifier,
		allocator: sequence.CounterAllocator{},
		query:     query.New(query.ModeIndexed),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.auditor = audit.NewLogger(s.logger, s.auditPublisher)
	return s
}

// QueryMode reports how request listings are served.
func (s *Service) QueryMode() query.Mode {
	return s.query.Mode()
}

// invoke runs fn against a fresh Store and translates whatever it returns.
func (s *Service) invoke(ctx context.Context, operation, failMsg string, fn func(ctx context.Context, st *store.Store) error) error {
	start := time.Now()
	err := s.ledger.Invoke(ctx, func(ctx context.Context, stub ledger.Stub) error {
		return fn(ctx, store.New(stub))
	})
	if s.metrics != nil {
		s.metrics.ObserveInvocation(operation, time.Since(start).Seconds())
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflict(operation)
		}
	}
	if err == nil {
		return nil
	}
	if s.logger != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		s.logger.WarnContext(ctx, "credential invocation failed",
			"operation", operation,
			"error", err,
		)
	}
	return dErrors.FromSentinel(err, failMsg)
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	s.auditor.Log(ctx, event)
}
