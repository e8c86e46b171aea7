package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"credverify/internal/credential/models"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/httputil"
	"credverify/pkg/requestcontext"
	"credverify/pkg/validation"
)

// ArgSeparator splits argsToBePassed into positional arguments.
const ArgSeparator = "###|||"

// TransactionRequest is the body of a gateway submission.
type TransactionRequest struct {
	NameOfTransaction string `json:"nameOfTransaction" validate:"notblank"`
	ArgsToBePassed    string `json:"argsToBePassed"`
}

func (r *TransactionRequest) Sanitize() {
	r.NameOfTransaction = strings.TrimSpace(r.NameOfTransaction)
}

func (r *TransactionRequest) Validate() error {
	return validation.Validate(r)
}

// Args splits ArgsToBePassed. An empty string yields one empty argument, the
// same as a client sending a single blank value.
func (r *TransactionRequest) Args() []string {
	return strings.Split(r.ArgsToBePassed, ArgSeparator)
}

// operation is one gateway-callable transaction. A nil result is answered with
// an empty 200.
type operation struct {
	arity int
	call  func(ctx context.Context, svc Service, args []string) (any, error)
}

var operations = map[string]operation{
	"AddAUniversityPublicKey": {2, func(ctx context.Context, svc Service, a []string) (any, error) {
		return nil, svc.RegisterUniversityKey(ctx, a[0], a[1])
	}},
	"GetAUniversityPublicKey": {1, func(ctx context.Context, svc Service, a []string) (any, error) {
		return svc.GetUniversityKey(ctx, a[0])
	}},
	"UserRequestDegreeFromUni": {4, func(ctx context.Context, svc Service, a []string) (any, error) {
		_, err := svc.RequestDegree(ctx, models.StudentRequestInput{
			University: a[0], Student: a[1], NameAtDegree: a[2], DateOfBirth: a[3],
		})
		return nil, err
	}},
	"VerifierRequestDegreeFromStudent": {3, func(ctx context.Context, svc Service, a []string) (any, error) {
		_, err := svc.RequestVerification(ctx, models.VerifierRequestInput{
			Student: a[0], Verifier: a[1], Description: a[2],
		})
		return nil, err
	}},
	"GetRequestsToUni": {2, func(ctx context.Context, svc Service, a []string) (any, error) {
		role, err := models.ParseRole(a[1])
		if err != nil {
			return nil, err
		}
		records, err := svc.ListDegreeRequests(ctx, a[0], role)
		return nonNil(records), err
	}},
	"GetVerifierRequests": {2, func(ctx context.Context, svc Service, a []string) (any, error) {
		role, err := models.ParseRole(a[1])
		if err != nil {
			return nil, err
		}
		records, err := svc.ListVerificationRequests(ctx, a[0], role)
		return nonNil(records), err
	}},
	"UniversityIssueDegree": {5, func(ctx context.Context, svc Service, a []string) (any, error) {
		_, err := svc.IssueDegree(ctx, models.IssueDegreeInput{
			University: a[0], Student: a[1], DegreeData: a[2], Signature: a[3], StudentRequestKey: a[4],
		})
		return nil, err
	}},
	"OwnerUpdateVerifyerRequest": {2, func(ctx context.Context, svc Service, a []string) (any, error) {
		return nil, svc.CompleteVerificationRequest(ctx, a[0], a[1])
	}},
	"VerifyUniversityDegree": {1, func(ctx context.Context, svc Service, a []string) (any, error) {
		return svc.VerifyDegree(ctx, a[0])
	}},
	"EditARequest": {2, func(ctx context.Context, svc Service, a []string) (any, error) {
		_, err := svc.PatchRecord(ctx, a[0], []byte(a[1]))
		return nil, err
	}},
	"GetNumberOfDegreesIssued": {1, func(ctx context.Context, svc Service, a []string) (any, error) {
		return svc.CountDegreesIssued(ctx, a[0])
	}},
	"GetAIDData": {1, func(ctx context.Context, svc Service, a []string) (any, error) {
		return svc.GetRecord(ctx, a[0])
	}},
	"GetUserRecords": {1, func(ctx context.Context, svc Service, a []string) (any, error) {
		return svc.GetUserRecords(ctx, a[0])
	}},
	"RebuildRequestIndexes": {0, func(ctx context.Context, svc Service, _ []string) (any, error) {
		return svc.RebuildRequestIndexes(ctx)
	}},
}

// HandleSubmitTransaction runs a named operation with positional arguments.
func (h *Handler) HandleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.Decode[TransactionRequest](w, r, h.logger)
	if !ok {
		return
	}

	op, found := operations[req.NameOfTransaction]
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("unknown transaction %q", req.NameOfTransaction)))
		return
	}
	args := req.Args()
	if op.arity == 0 && req.ArgsToBePassed == "" {
		args = nil
	}
	if len(args) != op.arity {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("%s takes %d argument(s), got %d", req.NameOfTransaction, op.arity, len(args))))
		return
	}

	h.logger.InfoContext(ctx, "submitting transaction",
		"transaction", req.NameOfTransaction,
		"args", len(args),
		"request_id", requestID,
	)
	result, err := op.call(ctx, h.service, args)
	if err != nil {
		h.fail(w, r, "transaction failed", err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Operations lists the transaction names the gateway accepts.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	return names
}
