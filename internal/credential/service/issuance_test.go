package service

import (
	"context"
	"fmt"

	"go.uber.org/mock/gomock"

	"credverify/internal/credential/models"
	"credverify/internal/credential/query"
	"credverify/internal/credential/sequence"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/audit"
	"credverify/pkg/testutil"
)

// A student's request, listed by the university, issued against, ends up
// COMPLETED with the degree id attached and the id in the student's registry.
func (s *ServiceSuite) TestIssuanceEndToEnd() {
	s.allowAudit()
	requestKey := s.requestDegree("StateU", "alice")
	s.Equal("RequestStudentToUni_StateU_alice", requestKey)

	listed, err := s.service.ListDegreeRequests(s.ctx, "StateU", models.RoleRecipient)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(requestKey, listed[0][models.KeyField])
	s.Equal("PENDING", listed[0]["requestStatus"])

	degreeID := s.issue("StateU", "alice", requestKey)
	s.Equal("universityDegree_StateU_1", degreeID)

	req, err := s.service.GetRecord(s.ctx, requestKey)
	s.Require().NoError(err)
	s.Equal("COMPLETED", req["requestStatus"])
	s.Equal(degreeID, req["degree_id"])

	reg, err := s.service.GetUserRecords(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(models.Registry{models.CredentialTypeDegrees: {degreeID}}, reg)

	degree, err := s.service.GetRecord(s.ctx, degreeID)
	s.Require().NoError(err)
	s.Equal(models.Record{"DegreeData": "BSc Computer Science", "Signature": "c2ln"}, degree)

	n, err := s.service.CountDegreesIssued(s.ctx, "StateU")
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *ServiceSuite) TestIssuanceNumbersPerUniversity() {
	s.allowAudit()
	s.Equal("universityDegree_StateU_1", s.issue("StateU", "alice", s.requestDegree("StateU", "alice")))
	s.Equal("universityDegree_StateU_2", s.issue("StateU", "bob", s.requestDegree("StateU", "bob")))
	s.Equal("universityDegree_TechU_1", s.issue("TechU", "alice", s.requestDegree("TechU", "alice")))

	reg, err := s.service.GetUserRecords(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]string{"universityDegree_StateU_1", "universityDegree_TechU_1"}, reg[models.CredentialTypeDegrees])
}

// The degree counter can only move forward through issuance, so later
// issuance for the university keeps working after an edit attempt.
func (s *ServiceSuite) TestCounterCannotBeRewoundThroughPatch() {
	s.allowAudit()
	s.issue("StateU", "alice", s.requestDegree("StateU", "alice"))

	_, err := s.service.PatchRecord(s.ctx, "universityDegreeCounter_StateU", []byte(`{"last":0}`))
	s.requireCode(err, dErrors.CodeForbidden)

	s.Equal("universityDegree_StateU_2", s.issue("StateU", "bob", s.requestDegree("StateU", "bob")))
}

func (s *ServiceSuite) TestIssueAgainstCompletedRequestWritesNothing() {
	s.allowAudit()
	requestKey := s.requestDegree("StateU", "alice")
	s.issue("StateU", "alice", requestKey)

	_, err := s.service.IssueDegree(s.ctx, models.IssueDegreeInput{
		University: "StateU", Student: "alice", DegreeData: "again", Signature: "x", StudentRequestKey: requestKey,
	})
	s.requireCode(err, dErrors.CodeInvariantViolation)

	n, err := s.service.CountDegreesIssued(s.ctx, "StateU")
	s.Require().NoError(err)
	s.Equal(1, n)
	reg, err := s.service.GetUserRecords(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(reg[models.CredentialTypeDegrees], 1)
}

func (s *ServiceSuite) TestIssueWithMissingRequestAbortsInvocation() {
	_, err := s.service.IssueDegree(s.ctx, models.IssueDegreeInput{
		University: "StateU", Student: "alice", DegreeData: "d", Signature: "s",
		StudentRequestKey: "RequestStudentToUni_StateU_alice",
	})
	s.requireCode(err, dErrors.CodeNotFound)
	s.Zero(s.backend.Len())
}

func (s *ServiceSuite) TestIssueRejectsForeignRequest() {
	s.allowAudit()
	requestKey := s.requestDegree("StateU", "alice")

	cases := []models.IssueDegreeInput{
		{University: "TechU", Student: "alice", StudentRequestKey: requestKey},
		{University: "StateU", Student: "bob", StudentRequestKey: requestKey},
	}
	for _, in := range cases {
		_, err := s.service.IssueDegree(s.ctx, in)
		s.requireCode(err, dErrors.CodeValidation)
	}

	_, err := s.service.IssueDegree(s.ctx, models.IssueDegreeInput{
		University: "StateU", Student: "alice", StudentRequestKey: "RequestVerifierToStudent_alice_acme",
	})
	s.requireCode(err, dErrors.CodeInvalidInput)
}

func (s *ServiceSuite) TestIssueEmitsAuditAfterCommit() {
	s.expectAudit(audit.ActionDegreeRequested)
	requestKey := s.requestDegree("StateU", "alice")

	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Cond(func(x any) bool {
		e, ok := x.(audit.Event)
		return ok &&
			e.Action == string(audit.ActionDegreeIssued) &&
			e.Subject == "alice" &&
			e.Actor == "StateU" &&
			e.Resource == "universityDegree_StateU_1" &&
			e.Timestamp.Equal(s.now)
	})).Return(nil)
	s.issue("StateU", "alice", requestKey)
}

// Concurrent issuances for one university never share a sequence number: every
// issuance either commits a distinct id or fails with a retryable conflict.
func (s *ServiceSuite) TestConcurrentIssuanceNeverDuplicates() {
	for _, kind := range []sequence.Kind{sequence.KindCounter, sequence.KindScan} {
		s.Run(string(kind), func() {
			s.SetupTest()
			s.allowAudit()
			allocator, err := sequence.New(kind)
			s.Require().NoError(err)
			svc := New(s.ledger, s.mockVerifier, WithAllocator(allocator), WithAuditPublisher(s.mockAudit))

			const n = 12
			requests := make([]string, n)
			for i := range requests {
				requests[i] = s.requestDegree("StateU", fmt.Sprintf("student%02d", i))
			}

			result := testutil.RunConcurrent(n, func(i int) error {
				_, err := svc.IssueDegree(s.ctx, models.IssueDegreeInput{
					University:        "StateU",
					Student:           fmt.Sprintf("student%02d", i),
					DegreeData:        "d",
					Signature:         "s",
					StudentRequestKey: requests[i],
				})
				if err != nil && !dErrors.HasCode(err, dErrors.CodeConflict) {
					return fmt.Errorf("unexpected: %w", err)
				}
				return err
			})
			s.Zero(result.Errors)
			s.Equal(int32(n), result.Successes+result.Conflicts)
			s.GreaterOrEqual(result.Successes, int32(1))

			count, err := svc.CountDegreesIssued(s.ctx, "StateU")
			s.Require().NoError(err)
			s.Equal(int(result.Successes), count)

			for seq := 1; seq <= count; seq++ {
				_, err := svc.GetRecord(s.ctx, fmt.Sprintf("universityDegree_StateU_%d", seq))
				s.NoError(err, "sequence %d should be issued", seq)
			}
		})
	}
}

func (s *ServiceSuite) TestLegacyModeListsWithRangeFilter() {
	s.allowAudit()
	svc := New(s.ledger, s.mockVerifier,
		WithQueryMode(query.ModeLegacy),
		WithAllocator(sequence.ScanAllocator{}),
		WithAuditPublisher(s.mockAudit),
	)
	s.Equal(query.ModeLegacy, svc.QueryMode())

	_, err := svc.RequestDegree(s.ctx, models.StudentRequestInput{University: "StateU", Student: "zed"})
	s.Require().NoError(err)

	listed, err := svc.ListDegreeRequests(s.ctx, "zed", models.RoleRequestor)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal("RequestStudentToUni_StateU_zed", listed[0][models.KeyField])
}

func (s *ServiceSuite) TestCancelledContextIsTimeout() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.service.CountDegreesIssued(ctx, "StateU")
	s.requireCode(err, dErrors.CodeTimeout)
}
