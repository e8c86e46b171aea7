package main

import (
	"context"
	"fmt"
	"log/slog"

	"credverify/internal/ledger"
	"credverify/internal/ledger/memory"
	pgledger "credverify/internal/ledger/postgres"
	redisledger "credverify/internal/ledger/redis"
	"credverify/internal/platform/config"
	"credverify/internal/platform/database"
	"credverify/internal/platform/health"
	"credverify/internal/platform/kafka/producer"
	"credverify/internal/platform/metrics"
	platformredis "credverify/internal/platform/redis"
	"credverify/migrations"
	"credverify/pkg/platform/audit"
	auditmetrics "credverify/pkg/platform/audit/metrics"
	auditpublisher "credverify/pkg/platform/audit/publisher"
	kafkaaudit "credverify/pkg/platform/audit/store/kafka"
	memoryaudit "credverify/pkg/platform/audit/store/memory"
	pgaudit "credverify/pkg/platform/audit/store/postgres"
)

const auditBufferSize = 1024

type healthChecker interface {
	Health(ctx context.Context) error
}

// infra holds the process's external connections.
type infra struct {
	backend   ledger.Backend
	publisher *auditpublisher.Publisher

	db       *database.Pool
	redis    *platformredis.Client
	producer *producer.Producer
}

// openInfra connects the ledger backend and the audit sink chosen by cfg and
// registers a readiness check for each.
func openInfra(ctx context.Context, cfg config.Server, reg *metrics.Registry, h *health.Handler, log *slog.Logger) (*infra, error) {
	in := &infra{}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database, reg)
		if err != nil {
			return nil, err
		}
		in.db = db
		if err := migrations.Up(ctx, db.DB()); err != nil {
			in.Close(log)
			return nil, err
		}
		h.RegisterCheck("database", db.Health)
	}

	backend, err := in.openBackend(ctx, cfg, reg)
	if err != nil {
		in.Close(log)
		return nil, err
	}
	in.backend = backend
	if hc, ok := backend.(healthChecker); ok {
		h.RegisterCheck("ledger", hc.Health)
	}

	store, err := in.openAuditStore(cfg, log)
	if err != nil {
		in.Close(log)
		return nil, err
	}
	if in.producer != nil {
		h.RegisterCheck("kafka", in.producer.Health)
	}
	if hc, ok := store.(healthChecker); ok {
		h.RegisterCheck("audit_sink", hc.Health)
	}
	in.publisher = auditpublisher.New(store,
		auditpublisher.WithAsyncBuffer(auditBufferSize),
		auditpublisher.WithLogger(log),
		auditpublisher.WithMetrics(auditmetrics.New(reg)),
	)
	return in, nil
}

func (in *infra) openBackend(ctx context.Context, cfg config.Server, reg *metrics.Registry) (ledger.Backend, error) {
	switch cfg.LedgerBackend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendRedis:
		if cfg.Redis.URL == "" {
			return nil, fmt.Errorf("ledger backend %q requires REDIS_URL", cfg.LedgerBackend)
		}
		client, err := platformredis.New(ctx, cfg.Redis, reg)
		if err != nil {
			return nil, err
		}
		in.redis = client
		return redisledger.New(client.Client, redisledger.WithNamespace(cfg.Redis.Namespace)), nil
	case config.BackendPostgres:
		if in.db == nil {
			return nil, fmt.Errorf("ledger backend %q requires DATABASE_URL", cfg.LedgerBackend)
		}
		return pgledger.New(in.db.DB()), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

// openAuditStore keeps events in PostgreSQL when a database is configured,
// in memory otherwise, and tees them to Kafka when brokers are configured.
func (in *infra) openAuditStore(cfg config.Server, log *slog.Logger) (audit.Store, error) {
	var local audit.Store = memoryaudit.NewInMemoryStore()
	if in.db != nil {
		local = pgaudit.New(in.db.DB())
	}
	if cfg.Kafka.Brokers == "" {
		return local, nil
	}

	p, err := producer.New(cfg.Kafka, log)
	if err != nil {
		return nil, err
	}
	in.producer = p
	return kafkaaudit.New(p, cfg.Kafka.AuditTopic,
		kafkaaudit.WithLocalStore(local),
		kafkaaudit.WithLogger(log),
	), nil
}

func (in *infra) RecordPoolStats() {
	if in.redis != nil {
		in.redis.RecordPoolStats()
	}
	in.db.RecordPoolStats()
}

// Close drains the audit queue before the connections it writes to go away.
func (in *infra) Close(log *slog.Logger) {
	if in.publisher != nil {
		in.publisher.Close()
	}
	if in.producer != nil {
		if err := in.producer.Close(); err != nil {
			log.Error("close kafka producer", "error", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Error("close redis", "error", err)
		}
	}
	if err := in.db.Close(); err != nil {
		log.Error("close database", "error", err)
	}
}
