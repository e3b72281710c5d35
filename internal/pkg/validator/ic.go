package validator

import (
	"strings"

	apperrors "propertyhub/internal/pkg/errors"
)

const icLength = 12

// normalizeIC drops the dashes and spaces people type between IC segments.
func normalizeIC(ic string) string {
	r := strings.NewReplacer("-", "", " ", "")
	return r.Replace(strings.TrimSpace(ic))
}

// ValidateMalaysianIC checks a MyKad number is 12 digits once separators are removed.
func ValidateMalaysianIC(ic string) error {
	digits := normalizeIC(ic)

	if digits == "" {
		return apperrors.NewValidationError("ic_number", "IC number is required")
	}
	if len(digits) != icLength {
		return apperrors.NewValidationError("ic_number", "IC number must be 12 digits")
	}
	if !isDigits(digits) {
		return apperrors.NewValidationError("ic_number", "IC number must contain only digits")
	}

	return nil
}

// FormatMalaysianIC renders 123456789012 as 123456-78-9012. Anything that is not
// exactly 12 digits comes back unchanged.
func FormatMalaysianIC(ic string) string {
	digits := normalizeIC(ic)
	if len(digits) != icLength || !isDigits(digits) {
		return ic
	}
	return digits[:6] + "-" + digits[6:8] + "-" + digits[8:]
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
