package service

import (
	"go.uber.org/mock/gomock"

	dErrors "credverify/pkg/domain-errors"
)

func (s *ServiceSuite) registerAndIssue() string {
	s.Require().NoError(s.service.RegisterUniversityKey(s.ctx, "StateU", "PUBKEY"))
	return s.issue("StateU", "alice", s.requestDegree("StateU", "alice"))
}

func (s *ServiceSuite) TestVerifyDegreeReturnsVerifierResult() {
	s.allowAudit()
	degreeID := s.registerAndIssue()

	s.mockVerifier.EXPECT().Verify("c2ln", "BSc Computer Science", "PUBKEY").Return(true)
	valid, err := s.service.VerifyDegree(s.ctx, degreeID)
	s.Require().NoError(err)
	s.True(valid)

	s.mockVerifier.EXPECT().Verify("c2ln", "BSc Computer Science", "PUBKEY").Return(false)
	valid, err = s.service.VerifyDegree(s.ctx, degreeID)
	s.Require().NoError(err)
	s.False(valid)
}

func (s *ServiceSuite) TestVerifyDegreeUsesLatestKey() {
	s.allowAudit()
	degreeID := s.registerAndIssue()
	s.Require().NoError(s.service.RegisterUniversityKey(s.ctx, "StateU", "ROTATED"))

	s.mockVerifier.EXPECT().Verify("c2ln", "BSc Computer Science", "ROTATED").Return(false)
	valid, err := s.service.VerifyDegree(s.ctx, degreeID)
	s.Require().NoError(err)
	s.False(valid)
}

func (s *ServiceSuite) TestVerifyDegreeFailures() {
	s.allowAudit()

	_, err := s.service.VerifyDegree(s.ctx, "records_alice")
	s.requireCode(err, dErrors.CodeMalformed)

	_, err = s.service.VerifyDegree(s.ctx, "universityDegree_StateU_x")
	s.requireCode(err, dErrors.CodeMalformed)

	_, err = s.service.VerifyDegree(s.ctx, "universityDegree_StateU_1")
	s.requireCode(err, dErrors.CodeNotFound)

	// degree exists but the university never registered a key
	degreeID := s.issue("StateU", "alice", s.requestDegree("StateU", "alice"))
	_, err = s.service.VerifyDegree(s.ctx, degreeID)
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestVerifyDegreeIsReadOnly() {
	s.allowAudit()
	degreeID := s.registerAndIssue()
	before := s.backend.Len()

	s.mockVerifier.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(true)
	_, err := s.service.VerifyDegree(s.ctx, degreeID)
	s.Require().NoError(err)
	s.Equal(before, s.backend.Len())
}
