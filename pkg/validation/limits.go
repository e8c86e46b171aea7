package validation

import (
	"fmt"

	dErrors "credverify/pkg/domain-errors"
)

// MaxBodySize is the maximum allowed request body size (64 KB).
const MaxBodySize = 64 * 1024

// String length limits
const (
	// MaxOwnerLength bounds university, student and verifier names.
	MaxOwnerLength = 128

	MaxKeyLength         = 512
	MaxPublicKeyLength   = 16 * 1024
	MaxSignatureLength   = 16 * 1024
	MaxDegreeDataLength  = 32 * 1024
	MaxDescriptionLength = 1024
)

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
