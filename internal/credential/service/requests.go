package service

import (
	"context"
	"strconv"
	"strings"

	"credverify/internal/credential/keys"
	"credverify/internal/credential/models"
	"credverify/internal/credential/store"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/audit"
	"credverify/pkg/platform/tracer"
	"credverify/pkg/requestcontext"
)

// RegisterUniversityKey stores the public key for uni, replacing any earlier one.
func (s *Service) RegisterUniversityKey(ctx context.Context, uni, publicKey string) error {
	if strings.TrimSpace(publicKey) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "public key is required")
	}
	err := s.invoke(ctx, "register_university_key", "failed to register university key", func(ctx context.Context, st *store.Store) error {
		return st.PutUniversityKey(ctx, uni, publicKey)
	})
	if err != nil {
		return err
	}
	key, _ := keys.UniversityPublicKey(uni)
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.ActionUniversityKeyRegistered),
		Subject:  uni,
		Resource: key,
		Actor:    uni,
	})
	return nil
}

func (s *Service) GetUniversityKey(ctx context.Context, uni string) (models.UniversityKey, error) {
	var out models.UniversityKey
	err := s.invoke(ctx, "get_university_key", "failed to load university public key", func(ctx context.Context, st *store.Store) error {
		k, err := st.GetUniversityKey(ctx, uni)
		out = k
		return err
	})
	return out, err
}

// RequestDegree files a PENDING request from a student to a university. A
// repeated request for the same pair replaces the earlier one.
func (s *Service) RequestDegree(ctx context.Context, in models.StudentRequestInput) (string, error) {
	var key string
	err := s.invoke(ctx, "request_degree", "failed to create degree request", func(ctx context.Context, st *store.Store) error {
		var err error
		key, err = st.PutStudentRequest(ctx, models.StudentRequest{
			UniversityName:            in.University,
			StudentUserName:           in.Student,
			StudentNameAtTimeofDegree: in.NameAtDegree,
			StudentDOB:                in.DateOfBirth,
			RequestDate:               requestcontext.Now(ctx),
			RequestStatus:             models.StatusPending,
		})
		return err
	})
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.IncrementRequestsCreated(string(keys.KindStudentRequest))
	}
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.ActionDegreeRequested),
		Subject:  in.Student,
		Resource: key,
		Actor:    in.Student,
	})
	return key, nil
}

// RequestVerification files a PENDING request from a verifier to a student.
func (s *Service) RequestVerification(ctx context.Context, in models.VerifierRequestInput) (string, error) {
	var key string
	err := s.invoke(ctx, "request_verification", "failed to create verification request", func(ctx context.Context, st *store.Store) error {
		var err error
		key, err = st.PutVerifierRequest(ctx, in.Student, models.VerifierRequest{
			VerifierName:          in.Verifier,
			CredentialDescription: in.Description,
			RequestDate:           requestcontext.Now(ctx),
			RequestStatus:         models.StatusPending,
		})
		return err
	})
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.IncrementRequestsCreated(string(keys.KindVerifierRequest))
	}
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.ActionVerificationRequested),
		Subject:  in.Student,
		Resource: key,
		Actor:    in.Verifier,
	})
	return key, nil
}

// ListDegreeRequests lists student-to-university requests where user plays role.
func (s *Service) ListDegreeRequests(ctx context.Context, user string, role models.Role) ([]models.Record, error) {
	return s.listRequests(ctx, keys.KindStudentRequest, user, role)
}

// ListVerificationRequests lists verifier-to-student requests where user plays role.
func (s *Service) ListVerificationRequests(ctx context.Context, user string, role models.Role) ([]models.Record, error) {
	return s.listRequests(ctx, keys.KindVerifierRequest, user, role)
}

func (s *Service) listRequests(ctx context.Context, kind keys.Kind, user string, role models.Role) (out []models.Record, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanListRequests,
		tracer.String(tracer.AttrKind, string(kind)),
		tracer.String(tracer.AttrRole, string(role)),
		tracer.String(tracer.AttrQueryMode, string(s.query.Mode())),
	)
	defer func() { span.End(err) }()

	err = s.invoke(ctx, "list_requests", "failed to list requests", func(ctx context.Context, st *store.Store) error {
		records, err := s.query.List(ctx, st.Stub(), kind, user, role)
		out = records
		return err
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.Int64(tracer.AttrResults, int64(len(out))))
	if s.metrics != nil {
		s.metrics.ObserveQueryResults(string(role), len(out))
	}
	return out, nil
}

// CompleteVerificationRequest marks the verifier request at key COMPLETED and
// attaches degreeID. A request completes exactly once.
func (s *Service) CompleteVerificationRequest(ctx context.Context, key, degreeID string) (err error) {
	if strings.TrimSpace(degreeID) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "degree id is required")
	}
	if _, err := keys.ParseDegree(degreeID); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanCompleteRequest,
		tracer.String(tracer.AttrKey, key),
		tracer.String(tracer.AttrDegreeID, degreeID),
	)
	defer func() { span.End(err) }()

	err = s.invoke(ctx, "complete_verification_request", "failed to complete verification request", func(ctx context.Context, st *store.Store) error {
		req, err := st.GetVerifierRequest(ctx, key)
		if err != nil {
			return err
		}
		if req.RequestStatus == models.StatusCompleted {
			return dErrors.New(dErrors.CodeInvariantViolation, "verification request is already completed")
		}
		served := requestcontext.Now(ctx)
		req.RequestStatus = models.StatusCompleted
		req.DegreeID = degreeID
		req.ServiceTime = &served
		return st.UpdateVerifierRequest(ctx, key, req)
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncrementRequestsCompleted(string(keys.KindVerifierRequest))
	}
	parsed, _ := keys.Parse(key)
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.ActionVerificationCompleted),
		Subject:  parsed.Owner(0),
		Resource: key,
		Actor:    parsed.Owner(0),
		Outcome:  degreeID,
	})
	return nil
}

// PatchRecord merges body over the record stored at key and returns the result.
func (s *Service) PatchRecord(ctx context.Context, key string, body []byte) (out models.Record, err error) {
	if strings.TrimSpace(key) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "key is required")
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanPatchRecord, tracer.String(tracer.AttrKey, key))
	defer func() { span.End(err) }()

	err = s.invoke(ctx, "patch_record", "failed to patch record", func(ctx context.Context, st *store.Store) error {
		rec, err := st.Patch(ctx, key, body)
		out = rec
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.ActionRecordPatched),
		Subject:  subjectOf(key),
		Resource: key,
	})
	return out, nil
}

// GetRecord returns the raw object stored at key.
func (s *Service) GetRecord(ctx context.Context, key string) (models.Record, error) {
	if strings.TrimSpace(key) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "key is required")
	}
	var out models.Record
	err := s.invoke(ctx, "get_record", "failed to load record", func(ctx context.Context, st *store.Store) error {
		rec, err := st.GetRecord(ctx, key)
		out = rec
		return err
	})
	return out, err
}

// GetUserRecords returns the user's credential registry; empty when nothing has
// been issued to them.
func (s *Service) GetUserRecords(ctx context.Context, user string) (models.Registry, error) {
	var out models.Registry
	err := s.invoke(ctx, "get_user_records", "failed to load user records", func(ctx context.Context, st *store.Store) error {
		reg, err := st.GetRegistry(ctx, user)
		out = reg
		return err
	})
	return out, err
}

// RebuildRequestIndexes backfills requestor index entries and returns how many
// were written.
func (s *Service) RebuildRequestIndexes(ctx context.Context) (written int, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRebuildIndexes)
	defer func() { span.End(err) }()

	err = s.invoke(ctx, "rebuild_request_indexes", "failed to rebuild request indexes", func(ctx context.Context, st *store.Store) error {
		n, err := s.query.RebuildIndexes(ctx, st)
		written = n
		return err
	})
	if err != nil {
		return 0, err
	}
	span.SetAttributes(tracer.Int64(tracer.AttrResults, int64(written)))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "request indexes rebuilt", "written", written)
	}
	s.logAudit(ctx, audit.Event{
		Action:  string(audit.ActionRequestIndexesRebuilt),
		Subject: "ledger",
		Outcome: strconv.Itoa(written),
	})
	return written, nil
}

// subjectOf names the first owner of key, or the raw key when it does not parse.
func subjectOf(key string) string {
	parsed, err := keys.Parse(key)
	if err != nil {
		return key
	}
	return parsed.Owner(0)
}
