package credential

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"credverify/internal/credential/handler"
	"credverify/internal/credential/keys"
	"credverify/internal/credential/signature"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetKey(uni string) (signature.KeyPair, bool)
	SetKey(uni string, kp signature.KeyPair)
}

// RegisterSteps registers credential lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &credentialSteps{tc: tc}

	// Setup steps
	ctx.Step(`^university "([^"]*)" has registered an? (ed25519|dilithium3) key$`, steps.universityRegistersKey)
	ctx.Step(`^student "([^"]*)" requests a degree from "([^"]*)"$`, steps.studentRequestsDegree)
	ctx.Step(`^verifier "([^"]*)" requests proof of a degree from "([^"]*)"$`, steps.verifierRequestsProof)

	// Issuance steps
	ctx.Step(`^"([^"]*)" issues "([^"]*)" to "([^"]*)"$`, steps.issue)
	ctx.Step(`^"([^"]*)" issues "([^"]*)" to "([^"]*)" signed over "([^"]*)"$`, steps.issueSignedOver)
	ctx.Step(`^"([^"]*)" issues "([^"]*)" to "([^"]*)" through the gateway$`, steps.issueThroughGateway)

	// Verification request steps
	ctx.Step(`^"([^"]*)" shares degree "([^"]*)" with "([^"]*)"$`, steps.completeVerification)

	// Gateway steps
	ctx.Step(`^I submit transaction "([^"]*)" with args "([^"]*)"$`, steps.submit)
	ctx.Step(`^I submit transaction "([^"]*)" with args:$`, steps.submitDocString)
	ctx.Step(`^I submit transaction "([^"]*)" with no args$`, steps.submitNoArgs)
}

type credentialSteps struct {
	tc TestContext
}

func (s *credentialSteps) expectStatus(action string, want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("%s: expected status %d but got %d: %s", action, want, got, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *credentialSteps) universityRegistersKey(ctx context.Context, uni, alg string) error {
	kp, err := signature.GenerateKeyPair(alg)
	if err != nil {
		return err
	}
	s.tc.SetKey(uni, kp)
	if err := s.tc.PUT("/universities/"+uni+"/public-key", map[string]string{"public_key": kp.PublicKey}); err != nil {
		return err
	}
	return s.expectStatus("register key", 204)
}

func (s *credentialSteps) studentRequestsDegree(ctx context.Context, student, uni string) error {
	err := s.tc.POST("/degree-requests", map[string]string{
		"university":     uni,
		"student":        student,
		"name_at_degree": strings.ToUpper(student[:1]) + student[1:],
		"date_of_birth":  "2000-01-01",
	})
	if err != nil {
		return err
	}
	return s.expectStatus("request degree", 201)
}

func (s *credentialSteps) verifierRequestsProof(ctx context.Context, verifier, student string) error {
	err := s.tc.POST("/verification-requests", map[string]string{
		"student":     student,
		"verifier":    verifier,
		"description": "proof of degree",
	})
	if err != nil {
		return err
	}
	return s.expectStatus("request verification", 201)
}

func (s *credentialSteps) sign(uni, data string) (string, error) {
	kp, ok := s.tc.GetKey(uni)
	if !ok {
		return "", fmt.Errorf("no key registered for %s in this scenario", uni)
	}
	return signature.Sign(kp.Algorithm, kp.PrivateKey, data)
}

func (s *credentialSteps) issue(ctx context.Context, uni, data, student string) error {
	return s.issueSignedOver(ctx, uni, data, student, data)
}

func (s *credentialSteps) issueSignedOver(ctx context.Context, uni, data, student, signedData string) error {
	sig, err := s.sign(uni, signedData)
	if err != nil {
		return err
	}
	requestKey, err := keys.StudentRequest(uni, student)
	if err != nil {
		return err
	}
	return s.tc.POST("/degrees", map[string]string{
		"university":          uni,
		"student":             student,
		"degree_data":         data,
		"signature":           sig,
		"student_request_key": requestKey,
	})
}

func (s *credentialSteps) issueThroughGateway(ctx context.Context, uni, data, student string) error {
	sig, err := s.sign(uni, data)
	if err != nil {
		return err
	}
	requestKey, err := keys.StudentRequest(uni, student)
	if err != nil {
		return err
	}
	return s.submit(ctx, "UniversityIssueDegree", strings.Join([]string{uni, student, data, sig, requestKey}, handler.ArgSeparator))
}

func (s *credentialSteps) completeVerification(ctx context.Context, student, degreeID, verifier string) error {
	requestKey, err := keys.VerifierRequest(student, verifier)
	if err != nil {
		return err
	}
	return s.tc.POST("/verification-requests/complete", map[string]string{
		"key":       requestKey,
		"degree_id": degreeID,
	})
}

func (s *credentialSteps) submit(ctx context.Context, name, args string) error {
	return s.tc.POST("/submitTransactionToBlockChain", map[string]string{
		"nameOfTransaction": name,
		"argsToBePassed":    args,
	})
}

func (s *credentialSteps) submitNoArgs(ctx context.Context, name string) error {
	return s.submit(ctx, name, "")
}

func (s *credentialSteps) submitDocString(ctx context.Context, name string, args *godog.DocString) error {
	return s.submit(ctx, name, strings.TrimSpace(args.Content))
}
