// Package validation holds input limits enforced at trust boundaries.
package validation

import (
	"fmt"
	"unicode/utf8"

	dErrors "facebank/pkg/domain-errors"
)

// String element length limits, in characters.
const (
	// MaxNameLength is the longest customer name accepted at onboarding.
	MaxNameLength = 100

	// MaxEmailLength is the maximum length of an email address.
	MaxEmailLength = 254

	// MaxCodeLength bounds one-time confirmation codes.
	MaxCodeLength = 12

	// MaxAccountHandleLength bounds account handles.
	MaxAccountHandleLength = 32
)

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckDigits validates that value is exactly n ASCII digits.
func CheckDigits(fieldName, value string, n int) error {
	if len(value) != n {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be %d digits", fieldName, n))
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be %d digits", fieldName, n))
		}
	}
	return nil
}
