package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "credverify/pkg/domain-errors"
)

type ValidationSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationSuite))
}

type degreeRequest struct {
	UniversityName string `validate:"keyowner"`
	StudentDOB     string `validate:"required"`
	Role           string `validate:"omitempty,oneof=REQUESTOR RECIPIENT"`
	Description    string `validate:"max=5"`
}

func (s *ValidationSuite) TestValidateMessages() {
	cases := []struct {
		name string
		req  degreeRequest
		want string
	}{
		{"underscore owner", degreeRequest{UniversityName: "State_U", StudentDOB: "x"}, "university_name must be a non-empty name without underscores"},
		{"blank owner", degreeRequest{UniversityName: "  ", StudentDOB: "x"}, "university_name must be a non-empty name"},
		{"missing", degreeRequest{UniversityName: "StateU"}, "student_dob is required"},
		{"oneof", degreeRequest{UniversityName: "StateU", StudentDOB: "x", Role: "OWNER"}, "role must be one of [REQUESTOR RECIPIENT]"},
		{"max", degreeRequest{UniversityName: "StateU", StudentDOB: "x", Description: "toolong"}, "description must be at most 5"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			err := Validate(tc.req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			s.Contains(err.Error(), tc.want)
		})
	}

	s.NoError(Validate(degreeRequest{UniversityName: "StateU", StudentDOB: "1999-01-01", Role: "RECIPIENT"}))
}

func (s *ValidationSuite) TestOwnerLengthLimit() {
	s.NoError(Validate(degreeRequest{UniversityName: strings.Repeat("u", MaxOwnerLength), StudentDOB: "x"}))
	s.Error(Validate(degreeRequest{UniversityName: strings.Repeat("u", MaxOwnerLength+1), StudentDOB: "x"}))
}

func (s *ValidationSuite) TestCheckStringLength() {
	s.NoError(CheckStringLength("signature", strings.Repeat("a", 10), 10))
	err := CheckStringLength("signature", strings.Repeat("a", 11), 10)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ValidationSuite) TestToSnakeCase() {
	s.Equal("student_name_at_timeof_degree", toSnakeCase("StudentNameAtTimeofDegree"))
	s.Equal("public_key", toSnakeCase("PublicKey"))
	s.Equal("degree_id", toSnakeCase("DegreeID"))
}
