package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credverify/internal/credential/models"
	dErrors "credverify/pkg/domain-errors"
)

type GatewaySuite struct {
	suite.Suite
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func submit(name string, args ...string) map[string]string {
	return map[string]string{
		"nameOfTransaction": name,
		"argsToBePassed":    strings.Join(args, ArgSeparator),
	}
}

func (s *GatewaySuite) TestVoidOperationsAnswerEmpty200() {
	s.T().Run("UniversityIssueDegree maps positional args", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().IssueDegree(gomock.Any(), models.IssueDegreeInput{
			University:        "StateU",
			Student:           "alice",
			DegreeData:        "data",
			Signature:         "sig",
			StudentRequestKey: "RequestStudentToUni_StateU_alice",
		}).Return("universityDegree_StateU_1", nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain",
			submit("UniversityIssueDegree", "StateU", "alice", "data", "sig", "RequestStudentToUni_StateU_alice"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	s.T().Run("UserRequestDegreeFromUni", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().RequestDegree(gomock.Any(), models.StudentRequestInput{
			University: "StateU", Student: "alice", NameAtDegree: "Alice L", DateOfBirth: "1999-04-01",
		}).Return("RequestStudentToUni_StateU_alice", nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain",
			submit("UserRequestDegreeFromUni", "StateU", "alice", "Alice L", "1999-04-01"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	s.T().Run("VerifierRequestDegreeFromStudent", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().RequestVerification(gomock.Any(), models.VerifierRequestInput{
			Student: "alice", Verifier: "acme", Description: "BSc please",
		}).Return("RequestVerifierToStudent_alice_acme", nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain",
			submit("VerifierRequestDegreeFromStudent", "alice", "acme", "BSc please"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	s.T().Run("EditARequest keeps the JSON argument intact", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().PatchRecord(gomock.Any(), "RequestStudentToUni_StateU_alice", []byte(`{"StudentDOB":"2000"}`)).
			Return(models.Record{"StudentDOB": "2000"}, nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain",
			submit("EditARequest", "RequestStudentToUni_StateU_alice", `{"StudentDOB":"2000"}`))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	s.T().Run("AddAUniversityPublicKey and OwnerUpdateVerifyerRequest", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().RegisterUniversityKey(gomock.Any(), "StateU", "PEM").Return(nil)
		svc.EXPECT().CompleteVerificationRequest(gomock.Any(), "RequestVerifierToStudent_alice_acme", "universityDegree_StateU_1").Return(nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("AddAUniversityPublicKey", "StateU", "PEM"))
		assert.Equal(t, http.StatusOK, w.Code)
		w = serve(router, http.MethodPost, "/submitTransactionToBlockChain",
			submit("OwnerUpdateVerifyerRequest", "RequestVerifierToStudent_alice_acme", "universityDegree_StateU_1"))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func (s *GatewaySuite) TestQueryOperationsReturnJSON() {
	s.T().Run("VerifyUniversityDegree false is still a body", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().VerifyDegree(gomock.Any(), "universityDegree_StateU_1").Return(false, nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("VerifyUniversityDegree", "universityDegree_StateU_1"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `false`, w.Body.String())
	})

	s.T().Run("GetNumberOfDegreesIssued", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().CountDegreesIssued(gomock.Any(), "StateU").Return(2, nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("GetNumberOfDegreesIssued", "StateU"))
		assert.JSONEq(t, `2`, w.Body.String())
	})

	s.T().Run("GetRequestsToUni with no matches", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().ListDegreeRequests(gomock.Any(), "StateU", models.RoleRecipient).Return(nil, nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("GetRequestsToUni", "StateU", "RECIPIENT"))
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	s.T().Run("GetVerifierRequests", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().ListVerificationRequests(gomock.Any(), "alice", models.RoleRecipient).
			Return([]models.Record{{"VerifierName": "acme", models.KeyField: "RequestVerifierToStudent_alice_acme"}}, nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("GetVerifierRequests", "alice", "RECIPIENT"))
		assert.JSONEq(t, `[{"VerifierName":"acme","key1":"RequestVerifierToStudent_alice_acme"}]`, w.Body.String())
	})

	s.T().Run("GetAIDData and GetUserRecords", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().GetRecord(gomock.Any(), "universityDegree_StateU_1").
			Return(models.Record{"DegreeData": "BSc", "Signature": "c2ln"}, nil)
		svc.EXPECT().GetUserRecords(gomock.Any(), "alice").
			Return(models.Registry{models.CredentialTypeDegrees: {"universityDegree_StateU_1"}}, nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("GetAIDData", "universityDegree_StateU_1"))
		assert.JSONEq(t, `{"DegreeData":"BSc","Signature":"c2ln"}`, w.Body.String())
		w = serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("GetUserRecords", "alice"))
		assert.JSONEq(t, `{"Degrees":["universityDegree_StateU_1"]}`, w.Body.String())
	})

	s.T().Run("GetAUniversityPublicKey", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().GetUniversityKey(gomock.Any(), "StateU").Return(models.UniversityKey{PublicKey: "PEM"}, nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("GetAUniversityPublicKey", "StateU"))
		assert.JSONEq(t, `{"PublicKey":"PEM"}`, w.Body.String())
	})

	s.T().Run("RebuildRequestIndexes takes no arguments", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().RebuildRequestIndexes(gomock.Any()).Return(4, nil)

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", map[string]string{"nameOfTransaction": "RebuildRequestIndexes"})
		assert.JSONEq(t, `4`, w.Body.String())
	})
}

func (s *GatewaySuite) TestRejections() {
	s.T().Run("unknown transaction", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("DropTables", "x"))
		assertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})

	s.T().Run("arity mismatch never reaches the service", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("UniversityIssueDegree", "StateU", "alice"))
		assertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})

	s.T().Run("missing transaction name", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", map[string]string{"argsToBePassed": "x"})
		assertErrorResponse(t, w, http.StatusBadRequest, "validation_error")
	})

	s.T().Run("malformed body", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", `{"nameOfTransaction":`)
		assertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})

	s.T().Run("bad role", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("GetRequestsToUni", "StateU", "OWNER"))
		assertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})

	s.T().Run("service errors map to status codes", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().VerifyDegree(gomock.Any(), "nonsense").Return(false, dErrors.New(dErrors.CodeMalformed, "bad degree id"))

		w := serve(router, http.MethodPost, "/submitTransactionToBlockChain", submit("VerifyUniversityDegree", "nonsense"))
		assertErrorResponse(t, w, http.StatusBadRequest, "malformed")
	})
}

func TestOperationsCoverGatewayNames(t *testing.T) {
	names := Operations()
	require.Len(t, names, 14)
	assert.Contains(t, names, "UniversityIssueDegree")
	assert.Contains(t, names, "OwnerUpdateVerifyerRequest")
	assert.Contains(t, names, "GetAIDData")
}
