package validator

import (
	"net/mail"
	"strings"

	apperrors "propertyhub/internal/pkg/errors"
)

var blockedDomains = []string{
	"mailinator.com", "guerrillamail.com", "10minutemail.com", "tempmail.com",
	"yopmail.com", "trashmail.com",
}

// ValidateEmail checks format and rejects disposable inboxes.
// Renters legitimately use consumer mailboxes, so only throwaway domains are refused.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewValidationError("email", "invalid email format")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 || !strings.Contains(parts[1], ".") {
		return apperrors.NewValidationError("email", "invalid email format")
	}

	domain := strings.ToLower(parts[1])
	for _, blocked := range blockedDomains {
		if domain == blocked {
			return apperrors.NewValidationError("email", "disposable email domains not allowed")
		}
	}

	return nil
}
