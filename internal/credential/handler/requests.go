package handler

import (
	"strings"

	"credverify/internal/credential/models"
	"credverify/pkg/validation"
)

type RegisterKeyRequest struct {
	PublicKey string `json:"public_key" validate:"notblank,max=16384"`
}

func (r *RegisterKeyRequest) Sanitize() {
	r.PublicKey = strings.TrimSpace(r.PublicKey)
}

func (r *RegisterKeyRequest) Validate() error {
	return validation.Validate(r)
}

type DegreeRequestRequest struct {
	University   string `json:"university" validate:"keyowner"`
	Student      string `json:"student" validate:"keyowner"`
	NameAtDegree string `json:"name_at_degree" validate:"notblank,max=256"`
	DateOfBirth  string `json:"date_of_birth" validate:"notblank,max=64"`
}

func (r *DegreeRequestRequest) Sanitize() {
	r.University = strings.TrimSpace(r.University)
	r.Student = strings.TrimSpace(r.Student)
	r.NameAtDegree = strings.TrimSpace(r.NameAtDegree)
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
}

func (r *DegreeRequestRequest) Validate() error {
	return validation.Validate(r)
}

func (r *DegreeRequestRequest) toInput() models.StudentRequestInput {
	return models.StudentRequestInput{
		University:   r.University,
		Student:      r.Student,
		NameAtDegree: r.NameAtDegree,
		DateOfBirth:  r.DateOfBirth,
	}
}

type VerificationRequestRequest struct {
	Student     string `json:"student" validate:"keyowner"`
	Verifier    string `json:"verifier" validate:"keyowner"`
	Description string `json:"description" validate:"max=1024"`
}

func (r *VerificationRequestRequest) Sanitize() {
	r.Student = strings.TrimSpace(r.Student)
	r.Verifier = strings.TrimSpace(r.Verifier)
}

func (r *VerificationRequestRequest) Validate() error {
	return validation.Validate(r)
}

func (r *VerificationRequestRequest) toInput() models.VerifierRequestInput {
	return models.VerifierRequestInput{
		Student:     r.Student,
		Verifier:    r.Verifier,
		Description: r.Description,
	}
}

type CompleteVerificationRequest struct {
	Key      string `json:"key" validate:"notblank,max=512"`
	DegreeID string `json:"degree_id" validate:"notblank,max=512"`
}

func (r *CompleteVerificationRequest) Validate() error {
	return validation.Validate(r)
}

type IssueDegreeRequest struct {
	University        string `json:"university" validate:"keyowner"`
	Student           string `json:"student" validate:"keyowner"`
	DegreeData        string `json:"degree_data" validate:"required"`
	Signature         string `json:"signature" validate:"notblank"`
	StudentRequestKey string `json:"student_request_key" validate:"notblank,max=512"`
}

func (r *IssueDegreeRequest) Sanitize() {
	r.University = strings.TrimSpace(r.University)
	r.Student = strings.TrimSpace(r.Student)
	r.Signature = strings.TrimSpace(r.Signature)
	r.StudentRequestKey = strings.TrimSpace(r.StudentRequestKey)
}

func (r *IssueDegreeRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if err := validation.CheckStringLength("degree_data", r.DegreeData, validation.MaxDegreeDataLength); err != nil {
		return err
	}
	return validation.CheckStringLength("signature", r.Signature, validation.MaxSignatureLength)
}

func (r *IssueDegreeRequest) toInput() models.IssueDegreeInput {
	return models.IssueDegreeInput{
		University:        r.University,
		Student:           r.Student,
		DegreeData:        r.DegreeData,
		Signature:         r.Signature,
		StudentRequestKey: r.StudentRequestKey,
	}
}
