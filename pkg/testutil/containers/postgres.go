//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"credverify/internal/platform/config"
	"credverify/internal/platform/database"
	"credverify/migrations"
)

const postgresImage = "postgres:18-alpine"

// PostgresContainer is a migrated database shared by every suite in the
// test binary. Ryuk removes it when the process exits.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	Pool      *database.Pool
	DB        *sql.DB
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()
	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("credverify_test"),
		postgres.WithUsername("credverify"),
		postgres.WithPassword("credverify_test_password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := database.New(ctx, config.DatabaseConfig{
		URL:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, nil)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	if err := migrations.Up(ctx, pool.DB()); err != nil {
		_ = pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &PostgresContainer{Container: container, Pool: pool, DB: pool.DB()}
}

// Truncate empties tables between tests.
func (p *PostgresContainer) Truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// TruncateLedger clears ledger state and restarts the commit sequence.
func (p *PostgresContainer) TruncateLedger(ctx context.Context) error {
	if err := p.Truncate(ctx, "ledger_state"); err != nil {
		return err
	}
	_, err := p.DB.ExecContext(ctx, "ALTER SEQUENCE ledger_commit_seq RESTART WITH 1")
	return err
}
