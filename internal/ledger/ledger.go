// Package ledger is the gateway to the host key-value ledger.
//
// Every operation runs inside one invocation: reads go through a Stub that records
// what was observed, writes are buffered, and Commit hands the whole change set to the
// Backend, which validates the observed versions and applies the writes atomically.
// A change set whose reads were invalidated by a concurrent commit fails with
// ErrConflict and nothing is written.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/sentinel"
)

// ErrConflict is returned by Commit when another invocation changed something this
// invocation read. Callers may retry the whole invocation.
var ErrConflict = fmt.Errorf("ledger: read set invalidated by concurrent commit: %w", sentinel.ErrConflict)

// KV is one entry returned by a range scan.
type KV struct {
	Key   string
	Value []byte
}

// Version identifies the commit that last wrote a key. Zero means the key is absent.
type Version uint64

// Entry is a stored value together with its version.
type Entry struct {
	Key     string
	Value   []byte
	Version Version
}

// KeyVersion is the version of a key as observed by a read.
type KeyVersion struct {
	Key     string
	Version Version
}

// RangeRead records the result of a range scan so that phantom keys can be
// detected at commit time.
type RangeRead struct {
	StartKey string
	EndKey   string
	Observed []KeyVersion
}

// Write is a buffered mutation.
type Write struct {
	Key    string
	Value  []byte
	Delete bool
}

// ChangeSet is everything an invocation observed and wants to write.
type ChangeSet struct {
	Reads  []KeyVersion
	Ranges []RangeRead
	Writes []Write
}

// Stub is the per-invocation view of the ledger handed to domain code.
// GetState returns nil for an absent key. GetStateByRange scans the half-open
// lexical range [startKey, endKey); an empty endKey means unbounded.
type Stub interface {
	GetState(ctx context.Context, key string) ([]byte, error)
	PutState(ctx context.Context, key string, value []byte) error
	DelState(ctx context.Context, key string) error
	GetStateByRange(ctx context.Context, startKey, endKey string) ([]KV, error)
}

// Backend is a storage adapter. Commit must validate cs against the current state
// and apply cs.Writes as a single atomic unit, returning ErrConflict on stale reads.
type Backend interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Range(ctx context.Context, startKey, endKey string) ([]Entry, error)
	Commit(ctx context.Context, cs ChangeSet) error
}

// Snapshot is the read access a backend exposes while validating a change set.
type Snapshot interface {
	Version(ctx context.Context, key string) (Version, error)
	Range(ctx context.Context, startKey, endKey string) ([]KeyVersion, error)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger configures a logger for commit diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithTimeout bounds invocations that arrive without a deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Ledger) {
		l.timeout = timeout
	}
}

const defaultInvokeTimeout = 5 * time.Second

// Ledger runs invocations against a Backend.
type Ledger struct {
	backend Backend
	logger  *slog.Logger
	timeout time.Duration
}

// New constructs a Ledger over the given backend.
func New(backend Backend, opts ...Option) *Ledger {
	l := &Ledger{backend: backend, timeout: defaultInvokeTimeout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Backend exposes the underlying adapter, mainly for health checks.
func (l *Ledger) Backend() Backend {
	return l.backend
}

// Begin opens a transaction without committing it. Invoke is the normal entry
// point; Begin exists so callers can stage interleavings explicitly.
func (l *Ledger) Begin() *Tx {
	return newTx(l.backend)
}

// Invoke runs fn as one invocation and commits its writes atomically.
// Any error from fn aborts the invocation and nothing is written.
func (l *Ledger) Invoke(ctx context.Context, fn func(ctx context.Context, stub Stub) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "invocation aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	tx := l.Begin()
	if err := fn(ctx, tx); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if l.logger != nil {
			l.logger.WarnContext(ctx, "ledger commit rejected",
				"error", err,
				"writes", len(tx.writeOrder),
			)
		}
		return err
	}
	return nil
}

// Validate re-checks every read recorded in cs against snap.
func (cs ChangeSet) Validate(ctx context.Context, snap Snapshot) error {
	for _, r := range cs.Reads {
		current, err := snap.Version(ctx, r.Key)
		if err != nil {
			return err
		}
		if current != r.Version {
			return fmt.Errorf("key %q moved from version %d to %d: %w", r.Key, r.Version, current, ErrConflict)
		}
	}
	for _, rr := range cs.Ranges {
		current, err := snap.Range(ctx, rr.StartKey, rr.EndKey)
		if err != nil {
			return err
		}
		if !sameKeyVersions(current, rr.Observed) {
			return fmt.Errorf("range [%q, %q) changed: %w", rr.StartKey, rr.EndKey, ErrConflict)
		}
	}
	return nil
}

// InRange reports whether key lies in [startKey, endKey).
func InRange(key, startKey, endKey string) bool {
	if key < startKey {
		return false
	}
	return endKey == "" || key < endKey
}

// EmptyRange reports whether [startKey, endKey) cannot contain any key.
func EmptyRange(startKey, endKey string) bool {
	return endKey != "" && startKey >= endKey
}

// PrefixRange returns the half-open range covering every key starting with prefix.
func PrefixRange(prefix string) (string, string) {
	end := []byte(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return prefix, string(end[:i+1])
		}
	}
	return prefix, ""
}

func sameKeyVersions(a, b []KeyVersion) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
