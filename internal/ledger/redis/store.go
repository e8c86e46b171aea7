// Package redis is a ledger backend on Redis. Each key is a hash holding the value
// and the commit version; a sorted set with equal scores indexes every key so range
// scans use ZRANGEBYLEX. Commits run under WATCH so a concurrent change to anything
// the invocation read aborts the EXEC.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"credverify/internal/ledger"
)

const (
	defaultNamespace = "ledger"

	fieldValue   = "value"
	fieldVersion = "version"
)

// Option configures the Redis backend.
type Option func(*Store)

// WithNamespace prefixes every Redis key the backend touches.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.ns = ns
		}
	}
}

// Store persists ledger state in Redis.
type Store struct {
	client *redis.Client
	ns     string
}

// New constructs a Redis-backed ledger.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, ns: defaultNamespace}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) stateKey(key string) string {
	return s.ns + ":state:" + key
}

func (s *Store) indexKey() string {
	return s.ns + ":keys"
}

func (s *Store) seqKey() string {
	return s.ns + ":seq"
}

// Get returns the committed entry for key.
func (s *Store) Get(ctx context.Context, key string) (ledger.Entry, bool, error) {
	return s.get(ctx, s.client, key)
}

// Range returns committed entries in [startKey, endKey) in key order.
func (s *Store) Range(ctx context.Context, startKey, endKey string) ([]ledger.Entry, error) {
	keys, err := s.rangeKeys(ctx, s.client, startKey, endKey)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []ledger.Entry{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HMGet(ctx, s.stateKey(key), fieldValue, fieldVersion)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("range values: %w", err)
	}

	out := make([]ledger.Entry, 0, len(keys))
	for i, cmd := range cmds {
		entry, found, err := decodeEntry(keys[i], cmd)
		if err != nil {
			return nil, err
		}
		// Deleted between ZRANGEBYLEX and HMGET.
		if !found {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Commit validates cs under WATCH and applies the writes in one MULTI/EXEC.
func (s *Store) Commit(ctx context.Context, cs ledger.ChangeSet) error {
	watched := make([]string, 0, len(cs.Reads)+len(cs.Writes)+1)
	for _, r := range cs.Reads {
		watched = append(watched, s.stateKey(r.Key))
	}
	for _, w := range cs.Writes {
		watched = append(watched, s.stateKey(w.Key))
	}
	for _, rr := range cs.Ranges {
		for _, kv := range rr.Observed {
			watched = append(watched, s.stateKey(kv.Key))
		}
	}
	if len(cs.Ranges) > 0 {
		watched = append(watched, s.indexKey())
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		if err := cs.Validate(ctx, watchSnapshot{store: s, tx: tx}); err != nil {
			return err
		}

		seq, err := tx.Incr(ctx, s.seqKey()).Result()
		if err != nil {
			return fmt.Errorf("allocate commit version: %w", err)
		}
		version := strconv.FormatInt(seq, 10)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range cs.Writes {
				if w.Delete {
					pipe.Del(ctx, s.stateKey(w.Key))
					pipe.ZRem(ctx, s.indexKey(), w.Key)
					continue
				}
				pipe.HSet(ctx, s.stateKey(w.Key), fieldValue, w.Value, fieldVersion, version)
				pipe.ZAddNX(ctx, s.indexKey(), redis.Z{Score: 0, Member: w.Key})
			}
			return nil
		})
		return err
	}, watched...)

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("watched keys changed before exec: %w", ledger.ErrConflict)
	}
	if err != nil {
		if errors.Is(err, ledger.ErrConflict) {
			return err
		}
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Health pings Redis.
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) get(ctx context.Context, c redis.Cmdable, key string) (ledger.Entry, bool, error) {
	cmd := c.HMGet(ctx, s.stateKey(key), fieldValue, fieldVersion)
	if err := cmd.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return ledger.Entry{}, false, fmt.Errorf("get %q: %w", key, err)
	}
	return decodeEntry(key, cmd)
}

func (s *Store) rangeKeys(ctx context.Context, c redis.Cmdable, startKey, endKey string) ([]string, error) {
	if ledger.EmptyRange(startKey, endKey) {
		return nil, nil
	}
	maxBound := "+"
	if endKey != "" {
		maxBound = "(" + endKey
	}
	keys, err := c.ZRangeByLex(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: "[" + startKey,
		Max: maxBound,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range keys: %w", err)
	}
	return keys, nil
}

func decodeEntry(key string, cmd *redis.SliceCmd) (ledger.Entry, bool, error) {
	vals := cmd.Val()
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return ledger.Entry{}, false, nil
	}
	value, ok := vals[0].(string)
	if !ok {
		return ledger.Entry{}, false, fmt.Errorf("decode value for %q: unexpected type %T", key, vals[0])
	}
	rawVersion, ok := vals[1].(string)
	if !ok {
		return ledger.Entry{}, false, fmt.Errorf("decode version for %q: unexpected type %T", key, vals[1])
	}
	version, err := strconv.ParseUint(rawVersion, 10, 64)
	if err != nil {
		return ledger.Entry{}, false, fmt.Errorf("parse version for %q: %w", key, err)
	}
	return ledger.Entry{Key: key, Value: []byte(value), Version: ledger.Version(version)}, true, nil
}

// watchSnapshot reads through the WATCH connection while validating.
type watchSnapshot struct {
	store *Store
	tx    *redis.Tx
}

func (w watchSnapshot) Version(ctx context.Context, key string) (ledger.Version, error) {
	entry, found, err := w.store.get(ctx, w.tx, key)
	if err != nil || !found {
		return 0, err
	}
	return entry.Version, nil
}

func (w watchSnapshot) Range(ctx context.Context, startKey, endKey string) ([]ledger.KeyVersion, error) {
	keys, err := w.store.rangeKeys(ctx, w.tx, startKey, endKey)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.KeyVersion, 0, len(keys))
	for _, key := range keys {
		entry, found, err := w.store.get(ctx, w.tx, key)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, ledger.KeyVersion{Key: key, Version: entry.Version})
		}
	}
	return out, nil
}
