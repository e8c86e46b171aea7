package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"credverify/internal/credential/keys"
	"credverify/internal/credential/models"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/sentinel"
)

// immutableKinds are written only by issuance and indexing. A rewound degree
// counter would hand out sequences that are already taken.
var immutableKinds = map[keys.Kind]string{
	keys.KindDegree:               "issued degrees are immutable",
	keys.KindDegreeCounter:        "degree counters are managed by issuance",
	keys.KindStudentRequestIndex:  "request indexes are managed by the ledger",
	keys.KindVerifierRequestIndex: "request indexes are managed by the ledger",
}

// Patch merges the top-level fields of body over the record at key and writes
// the result back. Degrees, degree counters and request indexes cannot be
// patched. Request records must still
// decode as their typed record afterwards, and a completed request cannot be
// reopened.
func (s *Store) Patch(ctx context.Context, key string, body []byte) (models.Record, error) {
	fields, err := decodePatch(body)
	if err != nil {
		return nil, err
	}

	parsed, parseErr := keys.Parse(key)
	if parseErr == nil {
		if reason, locked := immutableKinds[parsed.Kind]; locked {
			return nil, dErrors.New(dErrors.CodeForbidden, reason)
		}
	}

	existing, err := s.GetRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	before := statusOf(existing)
	for k, v := range fields {
		existing[k] = v
	}

	if parseErr == nil && parsed.Kind.IsRequest() {
		if err := checkRequestPatch(parsed.Kind, before, existing); err != nil {
			return nil, err
		}
	}

	if err := s.putJSON(ctx, key, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func decodePatch(body []byte) (models.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("patch body must be a JSON object: %w", sentinel.ErrMalformed)
	}
	fields, err := models.DecodeRecord(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode patch body: %v: %w", err, sentinel.ErrMalformed)
	}
	return fields, nil
}

func statusOf(rec models.Record) models.RequestStatus {
	s, _ := rec["requestStatus"].(string)
	return models.RequestStatus(s)
}

func checkRequestPatch(kind keys.Kind, before models.RequestStatus, merged models.Record) error {
	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode merged request: %w", err)
	}

	var after models.RequestStatus
	var degreeID string
	switch kind {
	case keys.KindStudentRequest:
		var req models.StudentRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "patched record is not a valid student request")
		}
		after, degreeID = req.RequestStatus, req.DegreeID
	case keys.KindVerifierRequest:
		var req models.VerifierRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "patched record is not a valid verifier request")
		}
		after, degreeID = req.RequestStatus, req.DegreeID
	}

	switch after {
	case models.StatusPending, models.StatusCompleted:
	default:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown requestStatus %q", after))
	}
	if before == models.StatusCompleted && after != models.StatusCompleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "a completed request cannot be reopened")
	}
	if after == models.StatusPending && degreeID != "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "degree_id can only be set on a completed request")
	}
	return nil
}
