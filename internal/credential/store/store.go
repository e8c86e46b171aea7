// Package store reads and writes credential records through a ledger stub.
// A Store is bound to one invocation; build a new one per Ledger.Invoke call.
//
// Lookups of absent keys return sentinel.ErrNotFound and undecodable payloads
// return sentinel.ErrMalformed, both wrapped with the key. Workflow guard
// failures are returned as domain errors.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"credverify/internal/credential/keys"
	"credverify/internal/credential/models"
	"credverify/internal/ledger"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/sentinel"
)

// Store is a typed view over one invocation's ledger stub.
type Store struct {
	stub ledger.Stub
}

// New binds a Store to stub.
func New(stub ledger.Stub) *Store {
	return &Store{stub: stub}
}

// Stub returns the underlying ledger stub.
func (s *Store) Stub() ledger.Stub {
	return s.stub
}

// Exists reports whether key holds a non-empty value.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	raw, err := s.stub.GetState(ctx, key)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// GetRecord returns the JSON object stored at key.
func (s *Store) GetRecord(ctx context.Context, key string) (models.Record, error) {
	var rec models.Record
	if err := s.getJSON(ctx, key, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%s is not a JSON object: %w", key, sentinel.ErrMalformed)
	}
	return rec, nil
}

func (s *Store) GetUniversityKey(ctx context.Context, uni string) (models.UniversityKey, error) {
	key, err := keys.UniversityPublicKey(uni)
	if err != nil {
		return models.UniversityKey{}, err
	}
	var uk models.UniversityKey
	if err := s.getJSON(ctx, key, &uk); err != nil {
		return models.UniversityKey{}, err
	}
	return uk, nil
}

// PutUniversityKey upserts the public key for uni.
func (s *Store) PutUniversityKey(ctx context.Context, uni, publicKey string) error {
	key, err := keys.UniversityPublicKey(uni)
	if err != nil {
		return err
	}
	return s.putJSON(ctx, key, models.UniversityKey{PublicKey: publicKey})
}

// PutStudentRequest writes req, replacing any earlier request for the same pair,
// and records it in the requestor index. Returns the request key.
func (s *Store) PutStudentRequest(ctx context.Context, req models.StudentRequest) (string, error) {
	key, err := keys.StudentRequest(req.UniversityName, req.StudentUserName)
	if err != nil {
		return "", err
	}
	idx, err := keys.StudentRequestIndex(req.StudentUserName, req.UniversityName)
	if err != nil {
		return "", err
	}
	if err := s.putJSON(ctx, key, req); err != nil {
		return "", err
	}
	return key, s.putIndex(ctx, idx)
}

// PutVerifierRequest writes req for student, replacing any earlier request for
// the same pair, and records it in the requestor index. Returns the request key.
func (s *Store) PutVerifierRequest(ctx context.Context, student string, req models.VerifierRequest) (string, error) {
	key, err := keys.VerifierRequest(student, req.VerifierName)
	if err != nil {
		return "", err
	}
	idx, err := keys.VerifierRequestIndex(req.VerifierName, student)
	if err != nil {
		return "", err
	}
	if err := s.putJSON(ctx, key, req); err != nil {
		return "", err
	}
	return key, s.putIndex(ctx, idx)
}

// PutRequestIndex writes the requestor index entry for a parsed request key.
func (s *Store) PutRequestIndex(ctx context.Context, request keys.Key) error {
	idx, ok := keys.IndexFor(request)
	if !ok {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s keys are not indexed", request.Kind))
	}
	encoded, err := idx.Encode()
	if err != nil {
		return err
	}
	return s.putIndex(ctx, encoded)
}

func (s *Store) putIndex(ctx context.Context, key string) error {
	return s.stub.PutState(ctx, key, []byte("{}"))
}

// GetStudentRequest reads the request at key, which must be a student request key.
func (s *Store) GetStudentRequest(ctx context.Context, key string) (models.StudentRequest, error) {
	if err := requireKind(key, keys.KindStudentRequest); err != nil {
		return models.StudentRequest{}, err
	}
	var req models.StudentRequest
	if err := s.getJSON(ctx, key, &req); err != nil {
		return models.StudentRequest{}, err
	}
	return req, nil
}

// GetVerifierRequest reads the request at key, which must be a verifier request key.
func (s *Store) GetVerifierRequest(ctx context.Context, key string) (models.VerifierRequest, error) {
	if err := requireKind(key, keys.KindVerifierRequest); err != nil {
		return models.VerifierRequest{}, err
	}
	var req models.VerifierRequest
	if err := s.getJSON(ctx, key, &req); err != nil {
		return models.VerifierRequest{}, err
	}
	return req, nil
}

// UpdateStudentRequest overwrites the request at key with req, keeping any
// fields stored alongside it that the typed record does not know about.
func (s *Store) UpdateStudentRequest(ctx context.Context, key string, req models.StudentRequest) error {
	return s.mergeTyped(ctx, key, req)
}

// UpdateVerifierRequest is UpdateStudentRequest for verifier requests.
func (s *Store) UpdateVerifierRequest(ctx context.Context, key string, req models.VerifierRequest) error {
	return s.mergeTyped(ctx, key, req)
}

func (s *Store) mergeTyped(ctx context.Context, key string, v any) error {
	patch, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	existing, err := s.GetRecord(ctx, key)
	if err != nil {
		return err
	}
	fields, err := models.DecodeRecord(patch)
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	for k, v := range fields {
		existing[k] = v
	}
	return s.putJSON(ctx, key, existing)
}

func (s *Store) GetDegree(ctx context.Context, degreeID string) (models.DegreeRecord, error) {
	var rec models.DegreeRecord
	if err := s.getJSON(ctx, degreeID, &rec); err != nil {
		return models.DegreeRecord{}, err
	}
	return rec, nil
}

// CreateDegree writes a new degree record. It never overwrites an existing one.
func (s *Store) CreateDegree(ctx context.Context, degreeID string, rec models.DegreeRecord) error {
	exists, err := s.Exists(ctx, degreeID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("degree %s already issued: %w", degreeID, sentinel.ErrConflict)
	}
	return s.putJSON(ctx, degreeID, rec)
}

// GetRegistry returns the user's credential registry, empty when none exists.
func (s *Store) GetRegistry(ctx context.Context, user string) (models.Registry, error) {
	key, err := keys.Records(user)
	if err != nil {
		return nil, err
	}
	reg := models.Registry{}
	err = s.getJSON(ctx, key, &reg)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Registry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// AppendCredential adds credentialID to the user's list for credentialType.
// Duplicates are kept.
func (s *Store) AppendCredential(ctx context.Context, user, credentialType, credentialID string) error {
	key, err := keys.Records(user)
	if err != nil {
		return err
	}
	reg, err := s.GetRegistry(ctx, user)
	if err != nil {
		return err
	}
	reg[credentialType] = append(reg[credentialType], credentialID)
	return s.putJSON(ctx, key, reg)
}

// GetDegreeCounter returns the allocation counter for uni and whether it exists.
func (s *Store) GetDegreeCounter(ctx context.Context, uni string) (models.DegreeCounter, bool, error) {
	key, err := keys.DegreeCounter(uni)
	if err != nil {
		return models.DegreeCounter{}, false, err
	}
	var c models.DegreeCounter
	err = s.getJSON(ctx, key, &c)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.DegreeCounter{}, false, nil
	}
	if err != nil {
		return models.DegreeCounter{}, false, err
	}
	return c, true, nil
}

func (s *Store) PutDegreeCounter(ctx context.Context, uni string, c models.DegreeCounter) error {
	key, err := keys.DegreeCounter(uni)
	if err != nil {
		return err
	}
	return s.putJSON(ctx, key, c)
}

// CountDegrees counts degree records in the legacy issuance range of uni.
func (s *Store) CountDegrees(ctx context.Context, uni string) (int, error) {
	if err := keys.ValidateOwner(uni); err != nil {
		return 0, err
	}
	start, end := keys.DegreeScanRange(uni)
	kvs, err := s.stub.GetStateByRange(ctx, start, end)
	if err != nil {
		return 0, err
	}
	return len(kvs), nil
}

func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	raw, err := s.stub.GetState(ctx, key)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("%s does not exist: %w", key, sentinel.ErrNotFound)
	}
	if err := models.Decode(raw, v); err != nil {
		return fmt.Errorf("decode %s: %v: %w", key, err, sentinel.ErrMalformed)
	}
	return nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.stub.PutState(ctx, key, bytes.TrimRight(buf.Bytes(), "\n"))
}

func requireKind(raw string, kind keys.Kind) error {
	k, err := keys.Parse(raw)
	if err != nil {
		return err
	}
	if k.Kind != kind {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%q is not a %s key", raw, kind))
	}
	return nil
}
