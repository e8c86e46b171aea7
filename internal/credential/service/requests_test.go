package service

import (
	"context"

	"credverify/internal/credential/models"
	"credverify/internal/ledger"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/audit"
)

func (s *ServiceSuite) TestUniversityKeyRegistration() {
	s.expectAudit(audit.ActionUniversityKeyRegistered)
	s.expectAudit(audit.ActionUniversityKeyRegistered)

	_, err := s.service.GetUniversityKey(s.ctx, "StateU")
	s.requireCode(err, dErrors.CodeNotFound)

	s.Require().NoError(s.service.RegisterUniversityKey(s.ctx, "StateU", "K1"))
	s.Require().NoError(s.service.RegisterUniversityKey(s.ctx, "StateU", "K2"))

	key, err := s.service.GetUniversityKey(s.ctx, "StateU")
	s.Require().NoError(err)
	s.Equal("K2", key.PublicKey)
}

func (s *ServiceSuite) TestUniversityKeyValidation() {
	s.requireCode(s.service.RegisterUniversityKey(s.ctx, "StateU", " "), dErrors.CodeInvalidInput)
	s.requireCode(s.service.RegisterUniversityKey(s.ctx, "State_U", "K"), dErrors.CodeInvalidInput)
	s.requireCode(s.service.RegisterUniversityKey(s.ctx, "", "K"), dErrors.CodeInvalidInput)
}

func (s *ServiceSuite) TestRequestDegreeRecordsPendingRequest() {
	s.expectAudit(audit.ActionDegreeRequested)
	key := s.requestDegree("StateU", "alice")

	rec, err := s.service.GetRecord(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(models.Record{
		"UniversityName":            "StateU",
		"StudentUserName":           "alice",
		"StudentNameAtTimeofDegree": "Alice Liddell",
		"StudentDOB":                "1999-04-01",
		"requestDate":               "2024-06-01T10:00:00Z",
		"requestStatus":             "PENDING",
	}, rec)

	mine, err := s.service.ListDegreeRequests(s.ctx, "alice", models.RoleRequestor)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(key, mine[0][models.KeyField])
}

func (s *ServiceSuite) TestVerificationRequestLifecycle() {
	s.allowAudit()
	key, err := s.service.RequestVerification(s.ctx, models.VerifierRequestInput{
		Student:     "alice",
		Verifier:    "acme",
		Description: "BSc transcript",
	})
	s.Require().NoError(err)
	s.Equal("RequestVerifierToStudent_alice_acme", key)

	incoming, err := s.service.ListVerificationRequests(s.ctx, "alice", models.RoleRecipient)
	s.Require().NoError(err)
	s.Require().Len(incoming, 1)
	s.Equal("PENDING", incoming[0]["requestStatus"])

	s.Require().NoError(s.service.CompleteVerificationRequest(s.ctx, key, "universityDegree_StateU_1"))

	rec, err := s.service.GetRecord(s.ctx, key)
	s.Require().NoError(err)
	s.Equal("COMPLETED", rec["requestStatus"])
	s.Equal("universityDegree_StateU_1", rec["degree_id"])
	s.Equal("2024-06-01T10:00:00Z", rec["serviceTime"])
	s.Equal("BSc transcript", rec["credentialDescription"])

	err = s.service.CompleteVerificationRequest(s.ctx, key, "universityDegree_StateU_2")
	s.requireCode(err, dErrors.CodeInvariantViolation)
}

func (s *ServiceSuite) TestCompleteVerificationRequestFailures() {
	s.allowAudit()
	s.requireCode(s.service.CompleteVerificationRequest(s.ctx, "RequestVerifierToStudent_alice_acme", ""), dErrors.CodeInvalidInput)
	s.requireCode(s.service.CompleteVerificationRequest(s.ctx, "RequestVerifierToStudent_alice_acme", "universityDegree_StateU_1"), dErrors.CodeNotFound)

	studentKey := s.requestDegree("StateU", "alice")
	s.requireCode(s.service.CompleteVerificationRequest(s.ctx, studentKey, "universityDegree_StateU_1"), dErrors.CodeInvalidInput)
	s.requireCode(s.service.CompleteVerificationRequest(s.ctx, "garbage", "universityDegree_StateU_1"), dErrors.CodeMalformed)
}

func (s *ServiceSuite) TestCompleteVerificationRequestNeedsDegreeID() {
	s.allowAudit()
	key, err := s.service.RequestVerification(s.ctx, models.VerifierRequestInput{
		Student: "alice", Verifier: "acme", Description: "BSc transcript",
	})
	s.Require().NoError(err)

	for _, id := range []string{"d", "RequestStudentToUni_StateU_alice", "universityDegree_StateU_x"} {
		s.requireCode(s.service.CompleteVerificationRequest(s.ctx, key, id), dErrors.CodeMalformed)
	}

	rec, err := s.service.GetRecord(s.ctx, key)
	s.Require().NoError(err)
	s.Equal("PENDING", rec["requestStatus"])
	s.NotContains(rec, "degree_id")
}

func (s *ServiceSuite) TestPatchRecordRoundTrip() {
	s.allowAudit()
	key := s.requestDegree("StateU", "alice")

	merged, err := s.service.PatchRecord(s.ctx, key, []byte(`{"StudentDOB":"2000-02-02","note":"typo fixed"}`))
	s.Require().NoError(err)
	s.Equal("2000-02-02", merged["StudentDOB"])

	rec, err := s.service.GetRecord(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(merged, rec)
	s.Equal("typo fixed", rec["note"])
	s.Equal("Alice Liddell", rec["StudentNameAtTimeofDegree"])
}

func (s *ServiceSuite) TestPatchRecordGuards() {
	s.allowAudit()
	requestKey := s.requestDegree("StateU", "alice")
	degreeID := s.issue("StateU", "alice", requestKey)

	_, err := s.service.PatchRecord(s.ctx, degreeID, []byte(`{"DegreeData":"forged"}`))
	s.requireCode(err, dErrors.CodeForbidden)

	_, err = s.service.PatchRecord(s.ctx, requestKey, []byte(`{"requestStatus":"PENDING"}`))
	s.requireCode(err, dErrors.CodeInvariantViolation)

	_, err = s.service.PatchRecord(s.ctx, requestKey, []byte(`["not","an","object"]`))
	s.requireCode(err, dErrors.CodeMalformed)

	_, err = s.service.PatchRecord(s.ctx, "records_nobody", []byte(`{}`))
	s.requireCode(err, dErrors.CodeNotFound)

	_, err = s.service.PatchRecord(s.ctx, "", []byte(`{}`))
	s.requireCode(err, dErrors.CodeInvalidInput)
}

func (s *ServiceSuite) TestGetUserRecordsEmptyWhenNothingIssued() {
	reg, err := s.service.GetUserRecords(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(reg)
}

func (s *ServiceSuite) TestListRequestsRejectsUnknownRole() {
	_, err := s.service.ListDegreeRequests(s.ctx, "alice", models.Role("OWNER"))
	s.requireCode(err, dErrors.CodeInvalidInput)
}

func (s *ServiceSuite) TestRebuildRequestIndexes() {
	s.expectAudit(audit.ActionRequestIndexesRebuilt)
	// a request written before requestor indexes existed
	err := s.ledger.Invoke(s.ctx, func(ctx context.Context, stub ledger.Stub) error {
		return stub.PutState(ctx, "RequestStudentToUni_StateU_alice", []byte(`{"requestStatus":"PENDING"}`))
	})
	s.Require().NoError(err)

	before, err := s.service.ListDegreeRequests(s.ctx, "alice", models.RoleRequestor)
	s.Require().NoError(err)
	s.Empty(before)

	written, err := s.service.RebuildRequestIndexes(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, written)

	after, err := s.service.ListDegreeRequests(s.ctx, "alice", models.RoleRequestor)
	s.Require().NoError(err)
	s.Len(after, 1)
}
