package service

import (
	"context"
	"fmt"

	"credverify/internal/credential/keys"
	"credverify/internal/credential/models"
	"credverify/internal/credential/store"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/audit"
	"credverify/pkg/platform/tracer"
)

// IssueDegree records a signed degree for a student and completes the
// student's originating request, all in one invocation. It returns the new
// degree id.
//
// The sequence number comes from the configured allocator. Two issuances racing
// for the same university read the same allocator state, so the ledger rejects
// the second commit with a conflict; callers may retry it.
func (s *Service) IssueDegree(ctx context.Context, in models.IssueDegreeInput) (degreeID string, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssueDegree,
		tracer.String(tracer.AttrUniversity, in.University),
		tracer.String(tracer.AttrKey, in.StudentRequestKey),
	)
	defer func() { span.End(err) }()

	var seq int
	err = s.invoke(ctx, "issue_degree", "failed to issue degree", func(ctx context.Context, st *store.Store) error {
		req, err := st.GetStudentRequest(ctx, in.StudentRequestKey)
		if err != nil {
			return err
		}
		if err := checkIssuable(in, req); err != nil {
			return err
		}

		seq, err = s.allocator.Allocate(ctx, st, in.University)
		if err != nil {
			return err
		}
		degreeID, err = keys.Degree(in.University, seq)
		if err != nil {
			return err
		}
		if err := st.CreateDegree(ctx, degreeID, models.DegreeRecord{
			DegreeData: in.DegreeData,
			Signature:  in.Signature,
		}); err != nil {
			return err
		}
		if err := st.AppendCredential(ctx, in.Student, models.CredentialTypeDegrees, degreeID); err != nil {
			return err
		}

		req.RequestStatus = models.StatusCompleted
		req.DegreeID = degreeID
		return st.UpdateStudentRequest(ctx, in.StudentRequestKey, req)
	})
	if err != nil {
		return "", err
	}

	span.SetAttributes(
		tracer.String(tracer.AttrDegreeID, degreeID),
		tracer.Int64(tracer.AttrSequence, int64(seq)),
	)
	if s.metrics != nil {
		s.metrics.IncrementDegreesIssued(in.University)
		s.metrics.IncrementRequestsCompleted(string(keys.KindStudentRequest))
	}
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.ActionDegreeIssued),
		Subject:  in.Student,
		Resource: degreeID,
		Actor:    in.University,
	})
	return degreeID, nil
}

// checkIssuable requires the originating request to be PENDING and to be
// addressed from this student to this university.
func checkIssuable(in models.IssueDegreeInput, req models.StudentRequest) error {
	if req.RequestStatus != models.StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("request %s is %s, not PENDING", in.StudentRequestKey, req.RequestStatus))
	}
	parsed, err := keys.Parse(in.StudentRequestKey)
	if err != nil {
		return err
	}
	if parsed.Owner(0) != in.University || parsed.Owner(1) != in.Student {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("request %s was not made by %s to %s", in.StudentRequestKey, in.Student, in.University))
	}
	return nil
}

// CountDegreesIssued counts the degree records in the university's issuance range.
func (s *Service) CountDegreesIssued(ctx context.Context, uni string) (int, error) {
	var n int
	err := s.invoke(ctx, "count_degrees", "failed to count degrees", func(ctx context.Context, st *store.Store) error {
		var err error
		n, err = st.CountDegrees(ctx, uni)
		return err
	})
	return n, err
}
