// Package postgres is a ledger backend on PostgreSQL. State lives in a single
// ledger_state table ordered by key with the C collation, so SQL ordering matches
// the byte-wise ordering range scans are defined on. Commits run in a SERIALIZABLE
// transaction; both version mismatches and serialization failures surface as
// ledger.ErrConflict.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"credverify/internal/ledger"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists ledger state in PostgreSQL.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed ledger.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the committed entry for key.
func (s *Store) Get(ctx context.Context, key string) (ledger.Entry, bool, error) {
	return get(ctx, s.db, key)
}

// Range returns committed entries in [startKey, endKey) in key order.
func (s *Store) Range(ctx context.Context, startKey, endKey string) ([]ledger.Entry, error) {
	if ledger.EmptyRange(startKey, endKey) {
		return []ledger.Entry{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, version
		FROM ledger_state
		WHERE key >= $1 AND ($2 = '' OR key < $2)
		ORDER BY key
	`, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}
	defer rows.Close()

	out := make([]ledger.Entry, 0)
	for rows.Next() {
		var e ledger.Entry
		var version int64
		if err := rows.Scan(&e.Key, &e.Value, &version); err != nil {
			return nil, fmt.Errorf("scan range row: %w", err)
		}
		e.Version = ledger.Version(version)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate range rows: %w", err)
	}
	return out, nil
}

// Commit validates cs and applies its writes in one serializable transaction.
func (s *Store) Commit(ctx context.Context, cs ledger.ChangeSet) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if err := cs.Validate(ctx, txSnapshot{tx: tx}); err != nil {
		return classify(err)
	}

	var version int64
	if err := tx.QueryRowContext(ctx, `SELECT nextval('ledger_commit_seq')`).Scan(&version); err != nil {
		return classify(fmt.Errorf("allocate commit version: %w", err))
	}

	for _, w := range cs.Writes {
		if w.Delete {
			if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_state WHERE key = $1`, w.Key); err != nil {
				return classify(fmt.Errorf("delete %q: %w", w.Key, err))
			}
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_state (key, value, version)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET
				value = EXCLUDED.value,
				version = EXCLUDED.version
		`, w.Key, w.Value, version)
		if err != nil {
			return classify(fmt.Errorf("put %q: %w", w.Key, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Health pings the database.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func get(ctx context.Context, q querier, key string) (ledger.Entry, bool, error) {
	e := ledger.Entry{Key: key}
	var version int64
	err := q.QueryRowContext(ctx, `SELECT value, version FROM ledger_state WHERE key = $1`, key).
		Scan(&e.Value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Entry{}, false, nil
	}
	if err != nil {
		return ledger.Entry{}, false, fmt.Errorf("get %q: %w", key, err)
	}
	e.Version = ledger.Version(version)
	return e, true, nil
}

func classify(err error) error {
	if errors.Is(err, ledger.ErrConflict) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected {
			return fmt.Errorf("%s: %w", pgErr.Message, ledger.ErrConflict)
		}
	}
	return err
}

// txSnapshot reads inside the commit transaction.
type txSnapshot struct {
	tx *sql.Tx
}

func (t txSnapshot) Version(ctx context.Context, key string) (ledger.Version, error) {
	entry, found, err := get(ctx, t.tx, key)
	if err != nil || !found {
		return 0, err
	}
	return entry.Version, nil
}

func (t txSnapshot) Range(ctx context.Context, startKey, endKey string) ([]ledger.KeyVersion, error) {
	out := make([]ledger.KeyVersion, 0)
	if ledger.EmptyRange(startKey, endKey) {
		return out, nil
	}
	rows, err := t.tx.QueryContext(ctx, `
		SELECT key, version
		FROM ledger_state
		WHERE key >= $1 AND ($2 = '' OR key < $2)
		ORDER BY key
	`, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("validate range: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kv ledger.KeyVersion
		var version int64
		if err := rows.Scan(&kv.Key, &version); err != nil {
			return nil, fmt.Errorf("scan validate row: %w", err)
		}
		kv.Version = ledger.Version(version)
		out = append(out, kv)
	}
	return out, rows.Err()
}
