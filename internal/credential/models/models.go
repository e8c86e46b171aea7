package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	dErrors "credverify/pkg/domain-errors"
)

// RequestStatus is the lifecycle state of a workflow request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusCompleted RequestStatus = "COMPLETED"
)

// Role selects which side of a request a listing is for.
type Role string

const (
	// RoleRequestor lists requests the user initiated.
	RoleRequestor Role = "REQUESTOR"
	// RoleRecipient lists requests addressed to the user.
	RoleRecipient Role = "RECIPIENT"
)

// ParseRole validates a role string.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleRequestor:
		return RoleRequestor, nil
	case RoleRecipient:
		return RoleRecipient, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "role must be REQUESTOR or RECIPIENT")
	}
}

// CredentialTypeDegrees is the registry bucket that issued degree ids go into.
const CredentialTypeDegrees = "Degrees"

// UniversityKey is a registered issuer public key.
type UniversityKey struct {
	PublicKey string `json:"PublicKey"`
}

// StudentRequest is a student's request for a degree from a university.
type StudentRequest struct {
	UniversityName            string        `json:"UniversityName"`
	StudentUserName           string        `json:"StudentUserName"`
	StudentNameAtTimeofDegree string        `json:"StudentNameAtTimeofDegree"`
	StudentDOB                string        `json:"StudentDOB"`
	RequestDate               time.Time     `json:"requestDate"`
	RequestStatus             RequestStatus `json:"requestStatus"`
	DegreeID                  string        `json:"degree_id,omitempty"`
}

// VerifierRequest is a verifier's request for proof of a student's credential.
type VerifierRequest struct {
	VerifierName          string        `json:"VerifierName"`
	CredentialDescription string        `json:"credentialDescription"`
	RequestDate           time.Time     `json:"requestDate"`
	RequestStatus         RequestStatus `json:"requestStatus"`
	DegreeID              string        `json:"degree_id,omitempty"`
	ServiceTime           *time.Time    `json:"serviceTime,omitempty"`
}

// DegreeRecord is an issued, signed degree. Immutable once written.
type DegreeRecord struct {
	DegreeData string `json:"DegreeData"`
	Signature  string `json:"Signature"`
}

// DegreeCounter backs per-university sequence allocation.
type DegreeCounter struct {
	Last int `json:"last"`
}

// Registry maps a credential type to the ids issued under it, in issue order.
type Registry map[string][]string

// Record is a raw JSON object as stored on the ledger. Numbers decode as
// json.Number so they are written back digit for digit.
type Record map[string]any

// Decode unmarshals raw into v, keeping numbers inside untyped values as
// json.Number. Trailing data after the value is an error.
func Decode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// DecodeRecord decodes raw as a JSON object.
func DecodeRecord(raw []byte) (Record, error) {
	var rec Record
	if err := Decode(raw, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("not a JSON object")
	}
	return rec, nil
}

// RequestListing is a request record tagged with the key it was read from.
type RequestListing = Record

// KeyField tags listed records with their originating key.
const KeyField = "key1"

// IssueDegreeInput carries the arguments of a degree issuance.
type IssueDegreeInput struct {
	University        string
	Student           string
	DegreeData        string
	Signature         string
	StudentRequestKey string
}

// StudentRequestInput carries the arguments of a student degree request.
type StudentRequestInput struct {
	University   string
	Student      string
	NameAtDegree string
	DateOfBirth  string
}

// VerifierRequestInput carries the arguments of a verifier request.
type VerifierRequestInput struct {
	Student     string
	Verifier    string
	Description string
}
