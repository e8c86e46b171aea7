package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, name := range []string{"CREDVERIFY_ADDR", "LEDGER_BACKEND", "INVOKE_TIMEOUT", "REDIS_POOL_SIZE", "AUDIT_TOPIC", "KAFKA_ACKS"} {
		t.Setenv(name, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendMemory, cfg.LedgerBackend)
	assert.Equal(t, 10*time.Second, cfg.InvokeTimeout)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, "credverify.audit", cfg.Kafka.AuditTopic)
	assert.Equal(t, "all", cfg.Kafka.Acks)
	assert.Equal(t, 30*time.Second, cfg.Kafka.DeliveryTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CREDVERIFY_ADDR", ":9090")
	t.Setenv("LEDGER_BACKEND", "Postgres")
	t.Setenv("INVOKE_TIMEOUT", "250ms")
	t.Setenv("REQUEST_QUERY_MODE", "legacy")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, BackendPostgres, cfg.LedgerBackend)
	assert.Equal(t, 250*time.Millisecond, cfg.InvokeTimeout)
	assert.Equal(t, "legacy", cfg.RequestQueryMode)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, "localhost:9092", cfg.Kafka.Brokers)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("INVOKE_TIMEOUT", "soon")
	t.Setenv("REDIS_POOL_SIZE", "many")

	cfg := FromEnv()
	assert.Equal(t, 10*time.Second, cfg.InvokeTimeout)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
