package service

import (
	"context"
	"strconv"

	"credverify/internal/credential/keys"
	"credverify/internal/credential/store"
	"credverify/pkg/platform/audit"
	"credverify/pkg/platform/tracer"
)

// VerifyDegree checks the signature on a degree record against the issuing
// university's registered key. It fails NotFound when either record is missing
// and Malformed when degreeID is not a degree key. It writes nothing.
func (s *Service) VerifyDegree(ctx context.Context, degreeID string) (valid bool, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyDegree, tracer.String(tracer.AttrDegreeID, degreeID))
	defer func() { span.End(err) }()

	parsed, err := keys.ParseDegree(degreeID)
	if err != nil {
		return false, err
	}
	uni := parsed.University()

	err = s.invoke(ctx, "verify_degree", "failed to verify degree", func(ctx context.Context, st *store.Store) error {
		degree, err := st.GetDegree(ctx, degreeID)
		if err != nil {
			return err
		}
		key, err := st.GetUniversityKey(ctx, uni)
		if err != nil {
			return err
		}
		valid = s.verifier.Verify(degree.Signature, degree.DegreeData, key.PublicKey)
		return nil
	})
	if err != nil {
		return false, err
	}

	span.SetAttributes(tracer.Bool(tracer.AttrValid, valid))
	if s.metrics != nil {
		s.metrics.IncrementVerification(valid)
	}
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.ActionDegreeVerified),
		Subject:  uni,
		Resource: degreeID,
		Outcome:  strconv.FormatBool(valid),
	})
	return valid, nil
}
