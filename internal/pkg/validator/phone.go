package validator

import (
	"regexp"
	"strings"

	apperrors "propertyhub/internal/pkg/errors"
)

var (
	mobilePattern   = regexp.MustCompile(`^01[0-9]{8,9}$`)
	landlinePattern = regexp.MustCompile(`^0[3-9][0-9]{7,8}$`)
)

// normalizePhone strips separators and rewrites the +60 country prefix to a trunk 0.
func normalizePhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	p := r.Replace(strings.TrimSpace(phone))

	switch {
	case strings.HasPrefix(p, "+60"):
		p = "0" + p[3:]
	case strings.HasPrefix(p, "60") && len(p) >= 11:
		p = "0" + p[2:]
	}
	return p
}

// ValidateMalaysianPhone accepts mobile (01x) and landline (03-09) numbers, with or without +60.
func ValidateMalaysianPhone(phone string) error {
	p := normalizePhone(phone)
	if p == "" {
		return apperrors.NewValidationError("phone", "phone number is required")
	}
	if !isDigits(p) {
		return apperrors.NewValidationError("phone", "phone number must contain only digits")
	}
	if !mobilePattern.MatchString(p) && !landlinePattern.MatchString(p) {
		return apperrors.NewValidationError("phone", "invalid Malaysian phone number")
	}
	return nil
}

// FormatMalaysianPhone renders mobiles as 012-345 6789 and landlines as 03-1234 5678.
// Unrecognised input is returned unchanged.
func FormatMalaysianPhone(phone string) string {
	p := normalizePhone(phone)
	switch {
	case mobilePattern.MatchString(p):
		rest := p[3:]
		return p[:3] + "-" + rest[:len(rest)-4] + " " + rest[len(rest)-4:]
	case landlinePattern.MatchString(p):
		rest := p[2:]
		return p[:2] + "-" + rest[:len(rest)-4] + " " + rest[len(rest)-4:]
	}
	return phone
}
