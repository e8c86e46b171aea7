// Package query lists workflow requests for one side of the relationship.
//
// Request keys are "<kind>_<recipient>_<requestor>". Recipients list their
// requests by scanning the primary key prefix. Requestors are served either by
// the requestor index ("<kind>ByRequestor_<requestor>_<recipient>") or, in legacy
// mode, by the original range-plus-suffix filter kept for compatibility with
// deployments that have not rebuilt their indexes.
package query

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"credverify/internal/credential/keys"
	"credverify/internal/credential/models"
	"credverify/internal/credential/store"
	"credverify/internal/ledger"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/sentinel"
)

// Mode selects how requests are looked up.
type Mode string

const (
	ModeIndexed Mode = "indexed"
	ModeLegacy  Mode = "legacy"
)

// ParseMode validates a configured mode. Empty selects ModeIndexed.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeIndexed, "":
		return ModeIndexed, nil
	case ModeLegacy:
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown request query mode %q", value)
	}
}

// Query lists requests through a ledger stub.
type Query struct {
	mode Mode
}

// New returns a Query in the given mode.
func New(mode Mode) *Query {
	if mode == "" {
		mode = ModeIndexed
	}
	return &Query{mode: mode}
}

// Mode reports the lookup mode.
func (q *Query) Mode() Mode {
	return q.mode
}

// List returns the requests of kind where user plays role. Each record carries
// its ledger key in models.KeyField. The most recently scanned record comes first.
func (q *Query) List(ctx context.Context, stub ledger.Stub, kind keys.Kind, user string, role models.Role) ([]models.Record, error) {
	if !kind.IsRequest() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s is not a request kind", kind))
	}
	if strings.TrimSpace(user) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user name is required")
	}
	switch role {
	case models.RoleRequestor, models.RoleRecipient:
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown role %q", role))
	}

	if q.mode == ModeLegacy {
		return listLegacy(ctx, stub, kind.Prefix(), user, role)
	}
	if err := keys.ValidateOwner(user); err != nil {
		return nil, err
	}
	if role == models.RoleRecipient {
		return listByRecipient(ctx, stub, kind, user)
	}
	return listByRequestor(ctx, stub, kind, user)
}

// listLegacy scans [prefix, user) for requestors and [prefix+user, end) for
// recipients, then filters on the key suffix.
func listLegacy(ctx context.Context, stub ledger.Stub, prefix, user string, role models.Role) ([]models.Record, error) {
	start, end := prefix, user
	if role == models.RoleRecipient {
		start, end = prefix+user, ""
	}
	kvs, err := stub.GetStateByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]models.Record, 0)
	for _, kv := range kvs {
		if len(kv.Value) == 0 {
			break
		}
		if !strings.HasPrefix(kv.Key, prefix) {
			continue
		}
		if strings.HasSuffix(kv.Key, user) != (role == models.RoleRequestor) {
			continue
		}
		rec, err := decodeTagged(kv.Key, kv.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	slices.Reverse(out)
	return out, nil
}

func listByRecipient(ctx context.Context, stub ledger.Stub, kind keys.Kind, user string) ([]models.Record, error) {
	start, end := keys.PrefixRange(kind.Prefix() + user + keys.Separator)
	kvs, err := stub.GetStateByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]models.Record, 0, len(kvs))
	for _, kv := range kvs {
		if len(kv.Value) == 0 {
			continue
		}
		rec, err := decodeTagged(kv.Key, kv.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	slices.Reverse(out)
	return out, nil
}

func listByRequestor(ctx context.Context, stub ledger.Stub, kind keys.Kind, user string) ([]models.Record, error) {
	indexKind, _ := keys.IndexKind(kind)
	start, end := keys.PrefixRange(indexKind.Prefix() + user + keys.Separator)
	entries, err := stub.GetStateByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]models.Record, 0, len(entries))
	for _, entry := range entries {
		idx, err := keys.Parse(entry.Key)
		if err != nil {
			continue
		}
		primary, ok := keys.RequestFromIndex(idx)
		if !ok {
			continue
		}
		key := primary.String()
		raw, err := stub.GetState(ctx, key)
		if err != nil {
			return nil, err
		}
		// Index entries outlive requests deleted by hand; skip them.
		if len(raw) == 0 {
			continue
		}
		rec, err := decodeTagged(key, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	slices.Reverse(out)
	return out, nil
}

// RebuildIndexes writes the requestor index entry for every request that lacks
// one and returns how many entries were written. Requests whose keys do not
// parse are skipped.
func (q *Query) RebuildIndexes(ctx context.Context, st *store.Store) (int, error) {
	written := 0
	for _, kind := range []keys.Kind{keys.KindStudentRequest, keys.KindVerifierRequest} {
		start, end := keys.PrefixRange(kind.Prefix())
		kvs, err := st.Stub().GetStateByRange(ctx, start, end)
		if err != nil {
			return written, err
		}
		for _, kv := range kvs {
			request, err := keys.Parse(kv.Key)
			if err != nil || request.Kind != kind {
				continue
			}
			idx, _ := keys.IndexFor(request)
			exists, err := st.Exists(ctx, idx.String())
			if err != nil {
				return written, err
			}
			if exists {
				continue
			}
			if err := st.PutRequestIndex(ctx, request); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

func decodeTagged(key string, raw []byte) (models.Record, error) {
	rec, err := models.DecodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, sentinel.ErrMalformed)
	}
	rec[models.KeyField] = key
	return rec, nil
}
