package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var errTxClosed = errors.New("ledger: transaction already committed or discarded")

// Tx is one invocation's view of the ledger. It implements Stub.
// Reads see the transaction's own buffered writes first. A Tx is not safe for
// concurrent use; each invocation gets its own.
type Tx struct {
	backend Backend

	reads     map[string]Version
	readOrder []string
	ranges    []RangeRead

	writes     map[string]Write
	writeOrder []string

	closed bool
}

func newTx(backend Backend) *Tx {
	return &Tx{
		backend: backend,
		reads:   make(map[string]Version),
		writes:  make(map[string]Write),
	}
}

var _ Stub = (*Tx)(nil)

// GetState returns the value for key, or nil when the key is absent.
func (t *Tx) GetState(ctx context.Context, key string) ([]byte, error) {
	if t.closed {
		return nil, errTxClosed
	}
	if key == "" {
		return nil, errors.New("ledger: empty key")
	}
	if w, ok := t.writes[key]; ok {
		if w.Delete {
			return nil, nil
		}
		return cloneBytes(w.Value), nil
	}

	entry, found, err := t.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get state %q: %w", key, err)
	}
	version := Version(0)
	if found {
		version = entry.Version
	}
	t.recordRead(key, version)
	if !found {
		return nil, nil
	}
	return cloneBytes(entry.Value), nil
}

// PutState buffers a write of value under key.
func (t *Tx) PutState(_ context.Context, key string, value []byte) error {
	if t.closed {
		return errTxClosed
	}
	if key == "" {
		return errors.New("ledger: empty key")
	}
	if value == nil {
		value = []byte{}
	}
	t.recordWrite(Write{Key: key, Value: cloneBytes(value)})
	return nil
}

// DelState buffers a delete of key.
func (t *Tx) DelState(_ context.Context, key string) error {
	if t.closed {
		return errTxClosed
	}
	if key == "" {
		return errors.New("ledger: empty key")
	}
	t.recordWrite(Write{Key: key, Delete: true})
	return nil
}

// GetStateByRange scans [startKey, endKey) in lexical order, merging the
// transaction's buffered writes over the committed state.
func (t *Tx) GetStateByRange(ctx context.Context, startKey, endKey string) ([]KV, error) {
	if t.closed {
		return nil, errTxClosed
	}

	var committed []Entry
	if !EmptyRange(startKey, endKey) {
		var err error
		committed, err = t.backend.Range(ctx, startKey, endKey)
		if err != nil {
			return nil, fmt.Errorf("range [%q, %q): %w", startKey, endKey, err)
		}
	}

	observed := make([]KeyVersion, 0, len(committed))
	merged := make(map[string][]byte, len(committed))
	for _, e := range committed {
		observed = append(observed, KeyVersion{Key: e.Key, Version: e.Version})
		merged[e.Key] = e.Value
	}
	t.ranges = append(t.ranges, RangeRead{StartKey: startKey, EndKey: endKey, Observed: observed})

	for _, key := range t.writeOrder {
		if EmptyRange(startKey, endKey) || !InRange(key, startKey, endKey) {
			continue
		}
		w := t.writes[key]
		if w.Delete {
			delete(merged, key)
			continue
		}
		merged[key] = w.Value
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: k, Value: cloneBytes(merged[k])})
	}
	return out, nil
}

// ChangeSet returns the reads and writes recorded so far.
func (t *Tx) ChangeSet() ChangeSet {
	cs := ChangeSet{
		Reads:  make([]KeyVersion, 0, len(t.readOrder)),
		Ranges: append([]RangeRead(nil), t.ranges...),
		Writes: make([]Write, 0, len(t.writeOrder)),
	}
	for _, key := range t.readOrder {
		cs.Reads = append(cs.Reads, KeyVersion{Key: key, Version: t.reads[key]})
	}
	for _, key := range t.writeOrder {
		cs.Writes = append(cs.Writes, t.writes[key])
	}
	return cs
}

// Commit validates and applies the buffered writes. Read-only transactions
// commit trivially.
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return errTxClosed
	}
	t.closed = true
	if len(t.writeOrder) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit aborted: %w", err)
	}
	return t.backend.Commit(ctx, t.ChangeSet())
}

// Discard abandons the transaction without writing anything.
func (t *Tx) Discard() {
	t.closed = true
}

func (t *Tx) recordRead(key string, version Version) {
	if _, seen := t.reads[key]; seen {
		return
	}
	t.reads[key] = version
	t.readOrder = append(t.readOrder, key)
}

func (t *Tx) recordWrite(w Write) {
	if _, seen := t.writes[w.Key]; !seen {
		t.writeOrder = append(t.writeOrder, w.Key)
	}
	t.writes[w.Key] = w
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
